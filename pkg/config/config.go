// Package config loads memscope configuration.
//
// Precedence, lowest to highest: built-in defaults, the TOML config file
// (~/.config/memscope/config.toml by default), then MEMSCOPE_* environment
// variables. Command-line flags override all of these and are handled by
// the CLI layer.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"

	"github.com/getmemscope/memscope/pkg/errors"
)

// appName is used for XDG directory paths.
const appName = "memscope"

// Duration wraps time.Duration with TOML text decoding ("30s", "5m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full memscope configuration.
type Config struct {
	Record RecordConfig `toml:"record" envPrefix:"MEMSCOPE_RECORD_"`
	Report ReportConfig `toml:"report" envPrefix:"MEMSCOPE_REPORT_"`
	Serve  ServeConfig  `toml:"serve" envPrefix:"MEMSCOPE_SERVE_"`
	Cache  CacheConfig  `toml:"cache" envPrefix:"MEMSCOPE_CACHE_"`
}

// RecordConfig configures the record command.
type RecordConfig struct {
	// Interval between memory samples.
	Interval Duration `toml:"interval" env:"INTERVAL"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	// Title is the default report title.
	Title string `toml:"title" env:"TITLE"`
}

// ServeConfig configures the report server.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr" env:"ADDR"`
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	// Backend selects the cache implementation: file, redis, or none.
	Backend string `toml:"backend" env:"BACKEND"`

	// TTL is how long cached artifacts are kept.
	TTL Duration `toml:"ttl" env:"TTL"`

	// Redis connection settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"REDIS_DB"`
}

// Cache backend names.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Record: RecordConfig{Interval: Duration(30 * time.Second)},
		Report: ReportConfig{Title: "Memory Test"},
		Serve:  ServeConfig{Addr: ":8080"},
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			TTL:       Duration(24 * time.Hour),
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads configuration from path, falling back to the default config
// file location when path is empty. A missing file is not an error.
// Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			path = ""
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			if os.IsNotExist(err) && !explicit {
				// No config file is fine; defaults apply.
			} else {
				return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend %q (must be file, redis, or none)", c.Cache.Backend)
	}
	if c.Record.Interval <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "record interval must be positive")
	}
	return nil
}

// DefaultPath returns the config file path using the XDG standard
// (~/.config/memscope/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
