package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	gserr "github.com/matzehuels/gitscrape/pkg/errors"
)

// Cache backends selectable via configuration.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Config holds the settings read from the TOML config file.
// Flags override file values; the file overrides built-in defaults.
type Config struct {
	OutputDir string `toml:"output_dir"`
	PageSize  int    `toml:"page_size"`
	Sort      string `toml:"sort"`
	Direction string `toml:"direction"`

	// RepoDelayMS is the pause between repository fetches in milliseconds.
	RepoDelayMS int `toml:"repo_delay_ms"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and parameterizes the response cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`    // file, redis, or none
	RedisAddr string `toml:"redis_addr"` // host:port for the redis backend
	TTLHours  int    `toml:"ttl_hours"`  // 0 means cache forever
}

// defaultConfig returns the built-in settings used when no config file exists.
func defaultConfig() Config {
	return Config{
		OutputDir: "output",
		Cache: CacheConfig{
			Backend:   cacheBackendFile,
			RedisAddr: "localhost:6379",
		},
	}
}

// configPath returns the expected config file location
// (~/.config/gitscrape/config.toml).
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads the config file at path, or the default location when path
// is empty. A missing file yields the built-in defaults; a malformed file is
// an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, gserr.Wrap(gserr.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, gserr.Wrap(gserr.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	switch cfg.Cache.Backend {
	case cacheBackendFile, cacheBackendRedis, cacheBackendNone:
	default:
		return gserr.New(gserr.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Cache.Backend)
	}
	if cfg.PageSize < 0 || cfg.PageSize > 100 {
		return gserr.New(gserr.ErrCodeInvalidConfig, "page_size must be between 0 and 100, got %d", cfg.PageSize)
	}
	if cfg.RepoDelayMS < 0 {
		return gserr.New(gserr.ErrCodeInvalidConfig, "repo_delay_ms must not be negative, got %d", cfg.RepoDelayMS)
	}
	return nil
}

// cacheTTL converts the configured TTL to a duration. Zero means no expiry.
func (c CacheConfig) cacheTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
