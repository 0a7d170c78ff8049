package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration. With an empty path
// it tries the conventional locations.
func Load(path string) (AppConfig, error) {
	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml", "./configs/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 4
	}
	if cfg.Synthesizer.HorizonDays == 0 {
		cfg.Synthesizer.HorizonDays = 365
	}
	if len(cfg.Synthesizer.Slots) == 0 {
		cfg.Synthesizer.Slots = []string{"08:00", "16:00"}
	}
	if cfg.Synthesizer.DefaultFare == 0 {
		cfg.Synthesizer.DefaultFare = 1000
	}
	if cfg.Synthesizer.MeshCap == 0 {
		cfg.Synthesizer.MeshCap = 200
	}
	if cfg.Graph.DefaultFlightWeightMin == 0 {
		cfg.Graph.DefaultFlightWeightMin = 180
	}
	if cfg.Graph.DefaultTopologyWeightMin == 0 {
		cfg.Graph.DefaultTopologyWeightMin = 60
	}
	if cfg.Graph.MaxFlightWeightMin == 0 {
		cfg.Graph.MaxFlightWeightMin = 10000
	}
	if cfg.Jobs.StageTimeoutMin == 0 {
		cfg.Jobs.StageTimeoutMin = 10
	}
}
