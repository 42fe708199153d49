// Package cache provides response cache backends for the Canvas client.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-grades/internal/db"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Open returns the backend named by driver. An empty driver or "none" disables caching
// and yields a nil Store.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "none":
		return nil, nil
	case "sqlite", "postgres":
		h, err := db.Open(ctx, db.Driver(driver), dsn)
		if err != nil {
			return nil, fmt.Errorf("cache %s: %w", driver, err)
		}
		return NewSQLCache(h), nil
	case "redis":
		return NewRedisCache(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", driver)
	}
}
