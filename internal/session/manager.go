// Package session runs one NPC event or item use for one player at a time,
// loading the player before the script and saving it afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/telemetry"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const saveTimeout = 5 * time.Second

var (
	ErrBusy           = errors.New("player already has an active session")
	ErrPlayerNotFound = errors.New("player not found")
	ErrUnknownTarget  = errors.New("unknown event or item")
	ErrNoTarget       = errors.New("exactly one of event or item is required")
)

// Target names what a session runs: an NPC event or an item use.
type Target struct {
	Event string
	Item  string
}

func (t Target) String() string {
	if t.Item != "" {
		return "item:" + t.Item
	}
	return "event:" + t.Event
}

// Indicator is implemented by hosts that can show per-NPC bubbles outside a
// conversation.
type Indicator interface {
	ShowIndicator(ctx context.Context, npc string, bubble emotion.Bubble)
}

type Manager struct {
	store  storage.Storage
	events *npc.Registry
	items  *items.Registry
	logger *slog.Logger

	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func NewManager(store storage.Storage, events *npc.Registry, itemReg *items.Registry, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		events: events,
		items:  itemReg,
		logger: logger,
		active: make(map[uuid.UUID]struct{}),
	}
}

// Check validates t without running anything.
func (m *Manager) Check(t Target) error {
	_, err := m.script(t)
	return err
}

func (m *Manager) script(t Target) (func(context.Context, host.Player) error, error) {
	if (t.Event == "") == (t.Item == "") {
		return nil, ErrNoTarget
	}
	if t.Event != "" {
		e, ok := m.events.Get(t.Event)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, t.Event)
		}
		return e.OnAction, nil
	}
	if _, ok := m.items.Get(t.Item); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, t.Item)
	}
	return func(ctx context.Context, p host.Player) error {
		consumed, err := m.items.Use(ctx, p, t.Item)
		if err == nil {
			m.logger.Debug("item used", "item", t.Item, "consumed", consumed)
		}
		return err
	}, nil
}

// Lease holds a player's session lock and its loaded state.
type Lease struct {
	m      *Manager
	player *state.Player
	once   sync.Once
}

func (l *Lease) Player() *state.Player { return l.player }

// Release frees the player for another session. It is safe to call more
// than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.m.mu.Lock()
		delete(l.m.active, l.player.ID)
		l.m.mu.Unlock()
	})
}

// Open locks the player and loads its state. The caller must Release the
// lease.
func (m *Manager) Open(ctx context.Context, id uuid.UUID) (*Lease, error) {
	m.mu.Lock()
	if _, busy := m.active[id]; busy {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.active[id] = struct{}{}
	m.mu.Unlock()

	unlock := func() {
		m.mu.Lock()
		delete(m.active, id)
		m.mu.Unlock()
	}

	ps, err := m.store.LoadPlayer(ctx, id)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("load player: %w", err)
	}
	if ps == nil {
		unlock()
		return nil, ErrPlayerNotFound
	}
	return &Lease{m: m, player: ps}, nil
}

// Run executes t against p and saves the leased player, whether or not the
// script succeeded. p must be built on lease.Player().
func (m *Manager) Run(ctx context.Context, lease *Lease, p host.Player, t Target) (err error) {
	run, err := m.script(t)
	if err != nil {
		return err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "session.run",
		trace.WithAttributes(
			attribute.String("player.id", lease.player.ID.String()),
			attribute.String("session.target", t.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := m.logger.With("player_id", lease.player.ID.String(), "target", t.String())
	start := time.Now()

	runErr := run(ctx, p)
	if runErr != nil {
		log.Warn("Script ended with error", "error", runErr)
		runErr = fmt.Errorf("run %s: %w", t, runErr)
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if saveErr := m.store.SavePlayer(saveCtx, lease.player); saveErr != nil {
		log.Error("Failed to save player", "error", saveErr)
		return errors.Join(runErr, fmt.Errorf("save player: %w", saveErr))
	}

	if ind, ok := p.(Indicator); ok && runErr == nil {
		m.refreshIndicators(ctx, ind, lease.player)
	}

	log.Info("Session finished", "duration", time.Since(start), "ok", runErr == nil)
	return runErr
}

func (m *Manager) refreshIndicators(ctx context.Context, ind Indicator, ps *state.Player) {
	shown := m.events.Indicators(ps)
	for _, e := range m.events.All() {
		if e.Indicator == nil {
			continue
		}
		ind.ShowIndicator(ctx, e.Name, shown[e.Name])
	}
}
