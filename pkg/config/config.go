// Package config loads the compiler's YAML configuration document: scratch
// pool sizing, optimization level, the compiled-program cache backend, and
// log level, mirroring the reference compiler's defaults-plus-override
// pattern (a small constants file backing a loader that applies a file's
// overrides on top of defaults).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultScratchSize is the minimum scratch pool spec §3 requires (two
// binary-op temporaries plus division/shift state); pkg/compiler.ScratchSize
// is the compiled-in value this can never go below.
const DefaultScratchSize = 11

// OptLevel is the allowed optimization ceiling (spec §1 Non-goals: nothing
// beyond constant propagation and dead-store avoidance).
type OptLevel int

const (
	OptNone OptLevel = iota
	OptConstProp
	OptDeadStore
)

// CacheBackend selects which pkg/cache implementation backs the
// compiled-program cache.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

// Config is the compiler's runtime configuration.
type Config struct {
	ScratchSize  int          `yaml:"scratch_size"`
	OptLevel     OptLevel     `yaml:"opt_level"`
	LogLevel     string       `yaml:"log_level"`
	LogFormat    string       `yaml:"log_format"`
	CacheBackend CacheBackend `yaml:"cache_backend"`
	SQLitePath   string       `yaml:"sqlite_path"`
	RedisAddr    string       `yaml:"redis_addr"`
	TracingStage bool         `yaml:"tracing_enabled"`
	MetricsAddr  string       `yaml:"metrics_addr"`
}

// Default returns the compiler's built-in defaults.
func Default() *Config {
	return &Config{
		ScratchSize:  DefaultScratchSize,
		OptLevel:     OptDeadStore,
		LogLevel:     "info",
		LogFormat:    "text",
		CacheBackend: CacheMemory,
		SQLitePath:   "gembiler-cache.db",
		RedisAddr:    "localhost:6379",
		TracingStage: false,
		MetricsAddr:  ":9090",
	}
}

// Load reads a YAML document at path and applies it on top of Default,
// leaving any field the document omits untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.ScratchSize < DefaultScratchSize {
		return nil, fmt.Errorf("config: scratch_size must be >= %d, got %d", DefaultScratchSize, cfg.ScratchSize)
	}

	return cfg, nil
}
