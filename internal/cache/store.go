package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/models"
)

// Store is the persistence backend for cache entries. Get returns
// (nil, nil) on a miss; expired and corrupt rows are deleted on read
// and reported as misses.
type Store interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Put(ctx context.Context, entry *models.CacheEntry) error
	Delete(ctx context.Context, key string) error
	// Sweep removes expired rows in bulk and returns how many it deleted
	Sweep(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewStore opens the backend selected by configuration
func NewStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		busy := time.Duration(cfg.Cache.BusyTimeoutMS) * time.Millisecond
		return NewSQLiteStore(cfg.Cache.Path, busy, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.CacheDSN(), logger)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
