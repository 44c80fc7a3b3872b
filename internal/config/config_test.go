package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at empty temp dirs and
// clears the environment variables Load reads.
func isolate(t *testing.T) (home, wd string) {
	t.Helper()
	home, wd = t.TempDir(), t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"TADA_BACKEND", "TADA_STORAGE_KEY", "TADA_DATA_DIR", "TADA_SQLITE_PATH",
		"TADA_REDIS_ADDR", "TADA_REDIS_PASSWORD", "TADA_REDIS_DB", "TADA_THEME",
		"TADA_POSTS_URL", "TADA_POSTS_TIMEOUT", "TADA_LOG_LEVEL", "NO_COLOR",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(wd)
	return home, wd
}

func load(t *testing.T, args ...string) (*Config, []string) {
	t.Helper()
	cfg, rest, err := Load(flag.NewFlagSet("todo", flag.ContinueOnError), args)
	require.NoError(t, err)
	return cfg, rest
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, rest := load(t, "ls")

	assert.Equal(t, []string{"ls"}, rest)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, "todos", cfg.Storage.Key)
	assert.Equal(t, filepath.Join(home, ".tada", "tada.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, DefaultTheme, cfg.UI.Theme)
	assert.Equal(t, DefaultPostsPerPage, cfg.Posts.PageSize)
	assert.Equal(t, DefaultPostsTimeout, cfg.Posts.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	home, wd := isolate(t)

	writeFile(t, filepath.Join(home, ".tada", "config.toml"), `
[storage]
backend = "sqlite"
key = "user-key"

[ui]
theme = "neon"
`)
	writeFile(t, filepath.Join(wd, "tada.toml"), `
[storage]
key = "project-key"

[posts]
timeout = "3s"
page_size = 5
`)
	t.Setenv("TADA_THEME", "mono")

	cfg, _ := load(t, "-backend", "memory", "ls")

	assert.Equal(t, BackendMemory, cfg.Storage.Backend, "flag beats user file")
	assert.Equal(t, "project-key", cfg.Storage.Key, "project file beats user file")
	assert.Equal(t, "mono", cfg.UI.Theme, "env beats files")
	assert.Equal(t, 3*time.Second, cfg.Posts.Timeout)
	assert.Equal(t, 5, cfg.Posts.PageSize)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, p, `
[storage]
backend = "redis"
[storage.redis]
addr = "cache:6380"
db = 2
`)

	cfg, _ := load(t, "-config", p)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	isolate(t)
	_, _, err := Load(flag.NewFlagSet("todo", flag.ContinueOnError), []string{"-config", "/does/not/exist.toml"})
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	_, wd := isolate(t)

	_, _, err := Load(flag.NewFlagSet("todo", flag.ContinueOnError), []string{"-backend", "floppy"})
	assert.ErrorContains(t, err, "storage.backend")

	writeFile(t, filepath.Join(wd, "tada.toml"), "[posts]\ntimeout = \"soon\"\n")
	_, _, err = Load(flag.NewFlagSet("todo", flag.ContinueOnError), nil)
	assert.ErrorContains(t, err, "posts.timeout")
}

func TestLoad_FlagsAndEnv(t *testing.T) {
	home, _ := isolate(t)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("TADA_DATA_DIR", "~/todos")

	cfg, rest := load(t, "-group", "-log-level", "debug", "add", "x")

	assert.True(t, cfg.UI.Group)
	assert.True(t, cfg.UI.NoColor)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(home, "todos"), cfg.Storage.Dir)
	assert.Equal(t, []string{"add", "x"}, rest)
}
