package main

import (
	"fmt"
	"os"
	"time"

	goyaml "github.com/goccy/go-yaml"
)

// Config controls the demo's search behavior.
type Config struct {
	// DebounceMS is how long a query must stay unchanged before the
	// corpus is searched.
	DebounceMS int `yaml:"debounce_ms"`
	// MaxResults caps the number of hits shown per query.
	MaxResults int `yaml:"max_results"`
	// CacheEntries bounds how many query results are kept around.
	CacheEntries int `yaml:"cache_entries"`
	// Corpus is the set of entries queries are matched against.
	Corpus []string `yaml:"corpus"`
}

func defaultConfig() Config {
	return Config{
		DebounceMS:   150,
		MaxResults:   5,
		CacheEntries: 256,
		Corpus: []string{
			"golang", "goroutine", "gopher", "gossip", "gondola",
			"channel", "context", "cancel", "cascade", "catalog",
			"reducer", "registry", "relay", "stream", "store",
		},
	}
}

// loadConfig returns the defaults, overlaid with the YAML file at path
// when one is given. Fields absent from the file keep their defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := goyaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DebounceMS < 0 {
		return Config{}, fmt.Errorf("debounce_ms must not be negative, got %d", cfg.DebounceMS)
	}
	if cfg.MaxResults <= 0 {
		return Config{}, fmt.Errorf("max_results must be positive, got %d", cfg.MaxResults)
	}
	if cfg.CacheEntries <= 0 {
		return Config{}, fmt.Errorf("cache_entries must be positive, got %d", cfg.CacheEntries)
	}
	return cfg, nil
}

func (c Config) debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
