// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Missing optional values are filled with the pipeline defaults (365-day trip
// horizon, two daily departure slots, a 200-stop mesh cap).
package config
