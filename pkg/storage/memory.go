package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// MemoryStorage keeps players in process memory. It backs the "memory"
// storage backend and doubles as the test storage.
type MemoryStorage struct {
	mu        sync.RWMutex
	players   map[uuid.UUID][]byte
	pingError error
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		players: make(map[uuid.UUID][]byte),
	}
}

// SetPingError configures Ping to fail with err. Pass nil to recover.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

// Players are stored encoded so callers never share state with the store.
func (m *MemoryStorage) SavePlayer(ctx context.Context, p *state.Player) error {
	p.Touch()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = data
	return nil
}

func (m *MemoryStorage) LoadPlayer(ctx context.Context, id uuid.UUID) (*state.Player, error) {
	m.mu.RLock()
	data, ok := m.players[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var p state.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

func (m *MemoryStorage) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, id)
	return nil
}

// Count returns the number of stored players.
func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}
