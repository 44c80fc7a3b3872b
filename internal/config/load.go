package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// flagValues holds root flag values until the sources below them are loaded.
type flagValues struct {
	configFile string
	group      bool
	backend    string
	dataDir    string
	theme      string
	noColor    bool
	logLevel   string
}

// Load builds the configuration from, lowest priority first:
// 1. Defaults
// 2. User config file (~/.tada/config.toml)
// 3. Project config file (tada.toml or .tada.toml in the current directory)
// 4. File named by -config
// 5. Environment variables (TADA_*)
// 6. Root flags
// It returns the arguments left after the flags.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	var fv flagValues
	fs.StringVar(&fv.configFile, "config", "", "path to a config file")
	fs.BoolVar(&fv.group, "group", false, "group output by pending/done")
	fs.StringVar(&fv.backend, "backend", "", "storage backend: json, sqlite, redis, memory")
	fs.StringVar(&fv.dataDir, "data", "", "directory holding todos.json (json backend)")
	fs.StringVar(&fv.theme, "theme", "", "color theme: classic, neon, mono")
	fs.BoolVar(&fv.noColor, "no-color", false, "disable colors")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	files := []string{findUserConfigFile(), findProjectConfigFile(), fv.configFile}
	for i, f := range files {
		if f == "" {
			continue
		}
		if err := loadConfigFile(cfg, f); err != nil {
			// Only an explicit -config file has to exist.
			if i < 2 && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("loading config file %s: %w", f, err)
		}
	}

	loadFromEnv(cfg)
	applyFlags(cfg, fs, fv)

	if err := finalizeConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, fs.Args(), nil
}

func loadConfigFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(b), cfg); err != nil {
		return fmt.Errorf("parsing toml: %w", err)
	}
	return nil
}

func findUserConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".tada", "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func findProjectConfigFile() string {
	for _, name := range []string{"tada.toml", ".tada.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("TADA_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TADA_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("TADA_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("TADA_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = n
		}
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv("TADA_POSTS_URL"); v != "" {
		cfg.Posts.BaseURL = v
	}
	if v := os.Getenv("TADA_POSTS_TIMEOUT"); v != "" {
		cfg.Posts.TimeoutRaw = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.NoColor = true
	}
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(cfg *Config, fs *flag.FlagSet, fv flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "group":
			cfg.UI.Group = fv.group
		case "backend":
			cfg.Storage.Backend = strings.ToLower(fv.backend)
		case "data":
			cfg.Storage.Dir = fv.dataDir
		case "theme":
			cfg.UI.Theme = fv.theme
		case "no-color":
			cfg.UI.NoColor = fv.noColor
		case "log-level":
			cfg.Log.Level = fv.logLevel
		}
	})
}
