package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/form-spam-filter/internal/adapters/store"
	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates form and submission stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the configured store
func (f *StoreFactory) CreateStore() (core.Store, error) {
	storeCfg := f.cfg.GetStore()
	logger := f.logger.Named("store")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch storeCfg.Type {
	case "memory":
		return store.NewMemoryStore(logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.Open(ctx, store.DialectSQLite, storeCfg.SQLitePath, logger)
	case "mysql":
		return store.Open(ctx, store.DialectMySQL, storeCfg.MySQLDSN, logger)
	case "postgres":
		return store.Open(ctx, store.DialectPostgres, storeCfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
