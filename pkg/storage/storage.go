package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// Storage persists player state between play sessions.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SavePlayer stores p, replacing any previous version, and bumps its
	// UpdatedAt.
	SavePlayer(ctx context.Context, p *state.Player) error
	// LoadPlayer returns nil, nil when the player does not exist.
	LoadPlayer(ctx context.Context, id uuid.UUID) (*state.Player, error)
	DeletePlayer(ctx context.Context, id uuid.UUID) error
}
