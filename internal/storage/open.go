package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/storage"
)

// Open builds the storage backend selected by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		r, err := NewRedisStorage(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.StorageSQLite:
		s, err := OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// WaitForConnection pings s until it answers, retrying every retryDelay
// (used during startup while Redis or the database volume comes up).
func WaitForConnection(ctx context.Context, s storage.Storage, maxRetries int, retryDelay time.Duration, logger *slog.Logger) error {
	for i := 0; i < maxRetries; i++ {
		if err := s.Ping(ctx); err != nil {
			logger.Debug("Storage not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for storage: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		logger.Info("Storage connection established")
		return nil
	}

	return fmt.Errorf("storage did not become available after %d attempts", maxRetries)
}
