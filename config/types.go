package config

// StoreConfig locates the relational store.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlitePath" validate:"required"`
}

// CacheConfig controls the graph snapshot cache.
type CacheConfig struct {
	Dir     string `yaml:"dir" validate:"required"`
	LRUSize int    `yaml:"lruSize" validate:"gte=0"`
}

// CitiesConfig locates the static city-coordinate directory.
type CitiesConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// SynthesizerConfig tunes virtual-entity generation.
type SynthesizerConfig struct {
	HubCity     string   `yaml:"hubCity"`
	HorizonDays int      `yaml:"horizonDays" validate:"gte=0"`
	Slots       []string `yaml:"slots" validate:"omitempty,dive,required"`
	DefaultFare int      `yaml:"defaultFare" validate:"gte=0"`
	// MeshCap bounds the no-hub fallback: each virtual stop links to at most
	// this many partners instead of the full O(n²) mesh.
	MeshCap int `yaml:"meshCap" validate:"gte=0"`
}

// GraphConfig tunes edge weighting during graph construction.
type GraphConfig struct {
	DefaultFlightWeightMin   float64 `yaml:"defaultFlightWeightMin" validate:"gte=0"`
	DefaultTopologyWeightMin float64 `yaml:"defaultTopologyWeightMin" validate:"gte=0"`
	MaxFlightWeightMin       float64 `yaml:"maxFlightWeightMin" validate:"gte=0"`
}

// JobsConfig controls stage execution.
type JobsConfig struct {
	StageTimeoutMin int `yaml:"stageTimeoutMin" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Store       StoreConfig       `yaml:"store" validate:"required"`
	Cache       CacheConfig       `yaml:"cache" validate:"required"`
	Cities      CitiesConfig      `yaml:"cities" validate:"required"`
	Synthesizer SynthesizerConfig `yaml:"synthesizer"`
	Graph       GraphConfig       `yaml:"graph"`
	Jobs        JobsConfig        `yaml:"jobs"`
}
