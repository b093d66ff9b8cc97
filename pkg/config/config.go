// Package config loads the engine's YAML configuration, following the same
// load-with-defaults shape as the teacher's pkg/config: a typed Config struct
// with yaml tags, hard-coded defaults, and a Load function that searches
// well-known paths when none is given explicitly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the construction parameters for a fixed-record page
// engine; see the Engine API section of the spec for the constraints each
// field must satisfy. engine.Open validates them since the same Config can
// be reused across engines with different record shapes.
type EngineConfig struct {
	PagesPath  string `yaml:"pages_path"`
	IndexPath  string `yaml:"index_path"`
	PageSize   int    `yaml:"page_size"`
	RecordSize int    `yaml:"record_size"`
	KeySize    int    `yaml:"key_size"`
	Fanout     int    `yaml:"fanout"`
	MaxPages   int    `yaml:"max_pages"`
	Multiset   bool   `yaml:"multiset"`
}

// Config is the top-level configuration document.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
}

// Load reads configuration from configPath. If configPath is empty, it
// searches a fixed list of default locations and falls back to built-in
// defaults if none exist.
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if configPath == "" {
		for _, p := range []string{"configs/fixedtree.yaml", "fixedtree.yaml"} {
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			applyEngineDefaults(cfg)
			return cfg, nil
		}
		applyEngineDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	applyEngineDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			PagesPath:  "fixedtree_data/pages.bin",
			IndexPath:  "fixedtree_data/btree.bin",
			PageSize:   4096,
			RecordSize: 200,
			KeySize:    20,
			Fanout:     32,
			MaxPages:   64,
			Multiset:   false,
		},
	}
}

func applyEngineDefaults(cfg *Config) {
	d := defaultConfig()
	if cfg.Engine.PagesPath == "" {
		cfg.Engine.PagesPath = d.Engine.PagesPath
	}
	if cfg.Engine.IndexPath == "" {
		cfg.Engine.IndexPath = d.Engine.IndexPath
	}
	if cfg.Engine.PageSize <= 0 {
		cfg.Engine.PageSize = d.Engine.PageSize
	}
	if cfg.Engine.RecordSize <= 0 {
		cfg.Engine.RecordSize = d.Engine.RecordSize
	}
	if cfg.Engine.KeySize <= 0 {
		cfg.Engine.KeySize = d.Engine.KeySize
	}
	if cfg.Engine.Fanout <= 0 {
		cfg.Engine.Fanout = d.Engine.Fanout
	}
	if cfg.Engine.MaxPages <= 0 {
		cfg.Engine.MaxPages = d.Engine.MaxPages
	}
}
