package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const playerKeyPrefix = "player:"

// RedisStorage implements the Storage interface using Redis. Each player is
// one JSON document under player:<uuid>.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL is either a
// host:port address or a redis:// URL.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}

	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func playerKey(id uuid.UUID) string {
	return playerKeyPrefix + id.String()
}

func (r *RedisStorage) SavePlayer(ctx context.Context, p *state.Player) error {
	p.Touch()

	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	if err := r.client.Set(ctx, playerKey(p.ID), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadPlayer(ctx context.Context, id uuid.UUID) (*state.Player, error) {
	data, err := r.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Player not found", "player_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var p state.Player
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Error("Failed to unmarshal player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

func (r *RedisStorage) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, playerKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete player", "player_id", id, "error", err)
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}
