// Package items holds the village item database and applies item use.
package items

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

var ErrUnknownItem = errors.New("unknown item")

// UseFunc runs an item's effect. consume reports whether one unit should be
// taken from the inventory; items that are only viewed return false.
type UseFunc func(ctx context.Context, p host.Player) (consume bool, err error)

type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        int      `json:"price"`
	Consumable   bool     `json:"consumable"`
	Type         string   `json:"type,omitempty"` // artwork, photograph, quest, echo
	HPValue      int      `json:"hp_value,omitempty"`
	RemoveStates []string `json:"remove_states,omitempty"`
	OnUse        UseFunc  `json:"-"`
}

// Registry is the item database.
type Registry struct {
	items map[string]*Item
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Item)}
}

// Register adds it, replacing any item with the same ID.
func (r *Registry) Register(it *Item) {
	r.items[it.ID] = it
}

func (r *Registry) Get(id string) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// All returns every item sorted by ID.
func (r *Registry) All() []*Item {
	out := make([]*Item, 0, len(r.items))
	for _, id := range slices.Sorted(maps.Keys(r.items)) {
		out = append(out, r.items[id])
	}
	return out
}

// Use applies item id for p. The player must own it. HP and state effects
// apply whenever the item's effect reports success; a unit is removed only
// when the item is consumable as well.
func (r *Registry) Use(ctx context.Context, p host.Player, id string) (consumed bool, err error) {
	it, ok := r.items[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	ps := p.State()
	if !ps.HasItem(id) {
		return false, fmt.Errorf("%w: %s", state.ErrItemNotOwned, id)
	}

	use := true
	if it.OnUse != nil {
		use, err = it.OnUse(ctx, p)
		if err != nil {
			return false, fmt.Errorf("use %s: %w", id, err)
		}
	}
	if !use {
		return false, nil
	}

	if it.HPValue > 0 {
		if _, err := ps.Heal(it.HPValue); err != nil {
			return false, fmt.Errorf("use %s: %w", id, err)
		}
	}
	if len(it.RemoveStates) > 0 {
		ps.RemoveStates(it.RemoveStates...)
	}

	if !it.Consumable {
		return false, nil
	}
	if err := ps.RemoveItem(id, 1); err != nil {
		return false, err
	}
	return true, nil
}
