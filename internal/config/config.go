// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Backends understood by Storage.Backend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Default values.
const (
	DefaultBackend      = BackendJSON
	DefaultStorageKey   = "todos"
	DefaultSQLitePath   = "~/.tada/tada.db"
	DefaultRedisAddr    = "localhost:6379"
	DefaultTheme        = "classic"
	DefaultPostsURL     = "https://jsonplaceholder.typicode.com"
	DefaultPostsPerPage = 12
	DefaultPostsTimeout = 10 * time.Second
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// Config holds the full configuration for tada.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Posts   PostsConfig   `toml:"posts"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects where the todo list is persisted.
type StorageConfig struct {
	Backend    string      `toml:"backend"`
	Key        string      `toml:"key"`
	Dir        string      `toml:"dir"` // json backend; empty = working directory
	SQLitePath string      `toml:"sqlite_path"`
	Redis      RedisConfig `toml:"redis"`
	Watch      bool        `toml:"watch"` // json backend: follow external writes in the TUI
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type UIConfig struct {
	Theme   string `toml:"theme"`
	Group   bool   `toml:"group"`
	NoColor bool   `toml:"no_color"`
}

// PostsConfig configures the posts viewer.
type PostsConfig struct {
	BaseURL  string        `toml:"base_url"`
	PageSize int           `toml:"page_size"`
	Timeout  time.Duration `toml:"-"`

	// Raw string value for TOML unmarshaling
	TimeoutRaw string `toml:"timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func setDefaults(cfg *Config) {
	cfg.Storage.Backend = DefaultBackend
	cfg.Storage.Key = DefaultStorageKey
	cfg.Storage.SQLitePath = DefaultSQLitePath
	cfg.Storage.Redis.Addr = DefaultRedisAddr
	cfg.Storage.Watch = true
	cfg.UI.Theme = DefaultTheme
	cfg.Posts.BaseURL = DefaultPostsURL
	cfg.Posts.PageSize = DefaultPostsPerPage
	cfg.Posts.Timeout = DefaultPostsTimeout
	cfg.Log.Level = DefaultLogLevel
	cfg.Log.Format = DefaultLogFormat
}

// Default returns the built-in configuration, with no files, environment
// or flags applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	if p, err := expandHome(cfg.Storage.SQLitePath); err == nil {
		cfg.Storage.SQLitePath = p
	}
	return cfg
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	backends := []string{BackendJSON, BackendSQLite, BackendRedis, BackendMemory}
	if !slices.Contains(backends, c.Storage.Backend) {
		return fmt.Errorf("storage.backend %q is not one of %s", c.Storage.Backend, strings.Join(backends, ", "))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage.key is required")
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
	}
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}
	if c.Posts.PageSize <= 0 {
		return fmt.Errorf("posts.page_size must be positive, got %d", c.Posts.PageSize)
	}
	return nil
}

// finalizeConfig parses raw values and expands paths.
func finalizeConfig(cfg *Config) error {
	if cfg.Posts.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Posts.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing posts.timeout %q: %w", cfg.Posts.TimeoutRaw, err)
		}
		cfg.Posts.Timeout = d
	}
	var err error
	if cfg.Storage.Dir, err = expandHome(cfg.Storage.Dir); err != nil {
		return err
	}
	if cfg.Storage.SQLitePath, err = expandHome(cfg.Storage.SQLitePath); err != nil {
		return err
	}
	return cfg.Validate()
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
