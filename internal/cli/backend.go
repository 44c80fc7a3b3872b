package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/storage"
	"github.com/Makepad-fr/tada/internal/storage/jsonstore"
	"github.com/Makepad-fr/tada/internal/storage/redisstore"
	"github.com/Makepad-fr/tada/internal/storage/sqlitestore"
)

// openAdapter opens the storage backend named by cfg.Backend.
func openAdapter(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (storage.Adapter, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		s, err := jsonstore.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		logger.Debug("json storage", "dir", s.Dir(), "file", s.Path(cfg.Key))
		return s, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o700); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
		return sqlitestore.New(cfg.SQLitePath)
	case config.BackendRedis:
		return redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.BackendMemory:
		return storage.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
