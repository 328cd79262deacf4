// Package config loads and validates the TOML configuration file that
// drives an analysis run.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Project       string        `toml:"project"`
	Input         Input         `toml:"input"`
	Resolve       Resolve       `toml:"resolve"`
	Introspection Introspection `toml:"introspection"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Metrics       Metrics       `toml:"metrics"`
	Tracing       Tracing       `toml:"tracing"`
}

// Input names the scanner dump to analyse and the class-name filters
// applied while loading it.
type Input struct {
	Dump    string   `toml:"dump"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Resolve struct {
	Workers int `toml:"workers"`
}

// Introspection paces lazy class loads against a live class source. Rate
// is loads per second; zero disables pacing.
type Introspection struct {
	Table string  `toml:"table"`
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

type Tracing struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given: analyse
// the named dump with everything else at defaults.
func Default(dump string) *Config {
	cfg := &Config{Input: Input{Dump: dump}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Project) == "" {
		cfg.Project = "default"
	}

	if cfg.Resolve.Workers <= 0 {
		cfg.Resolve.Workers = runtime.NumCPU()
	}

	if cfg.Introspection.Burst <= 0 {
		cfg.Introspection.Burst = 1
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "classlink.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Metrics.Listen) == "" {
		cfg.Metrics.Listen = ":9090"
	}

	if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Input.Dump) == "" {
		return fmt.Errorf("input.dump must name a scan dump file")
	}
	if cfg.Introspection.Rate < 0 {
		return fmt.Errorf("introspection.rate must not be negative")
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Listen) == "" {
		return fmt.Errorf("metrics.listen must be set when metrics are enabled")
	}
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return fmt.Errorf("tracing.endpoint must be set when tracing is enabled")
	}
	return nil
}
