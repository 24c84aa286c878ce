package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/d20"
)

const (
	DefaultHP    = 100
	DefaultAC    = 10
	StartingGold = 10
)

var (
	ErrInsufficientGold = errors.New("insufficient gold")
	ErrItemNotOwned     = errors.New("item not owned")
)

// Player is the persisted state of one player in the village: wallet,
// inventory, vitals and the free-form variables NPC scripts keep.
type Player struct {
	ID         uuid.UUID                  `json:"id"`
	Name       string                     `json:"name"`
	Gold       int                        `json:"gold"`
	Inventory  map[string]int             `json:"inventory,omitempty"` // item id -> count
	HP         int                        `json:"hp"`
	MaxHP      int                        `json:"max_hp"`
	AC         int                        `json:"ac"`
	Attributes map[string]int             `json:"attributes,omitempty"`
	States     []string                   `json:"states,omitempty"` // e.g. "poison"
	Variables  map[string]json.RawMessage `json:"variables,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

func NewPlayer(name string) *Player {
	now := time.Now().UTC()
	return &Player{
		ID:        uuid.New(),
		Name:      name,
		Gold:      StartingGold,
		Inventory: make(map[string]int),
		HP:        DefaultHP,
		MaxHP:     DefaultHP,
		AC:        DefaultAC,
		Variables: make(map[string]json.RawMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt.
func (p *Player) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// GetVariable decodes variable key into dst. It reports false when the
// variable is unset.
func (p *Player) GetVariable(key string, dst any) (bool, error) {
	raw, ok := p.Variables[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode variable %s: %w", key, err)
	}
	return true, nil
}

// SetVariable stores value under key. A nil value deletes the variable.
func (p *Player) SetVariable(key string, value any) error {
	if value == nil {
		delete(p.Variables, key)
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode variable %s: %w", key, err)
	}
	if p.Variables == nil {
		p.Variables = make(map[string]json.RawMessage)
	}
	p.Variables[key] = raw
	return nil
}

func (p *Player) HasVariable(key string) bool {
	_, ok := p.Variables[key]
	return ok
}

func (p *Player) DeleteVariable(key string) {
	delete(p.Variables, key)
}

// StringVar returns a string variable, or "" when unset or not a string.
func (p *Player) StringVar(key string) string {
	var s string
	if ok, err := p.GetVariable(key, &s); !ok || err != nil {
		return ""
	}
	return s
}

func (p *Player) BoolVar(key string) bool {
	var b bool
	if ok, err := p.GetVariable(key, &b); !ok || err != nil {
		return false
	}
	return b
}

func (p *Player) IntVar(key string) int {
	var n int
	if ok, err := p.GetVariable(key, &n); !ok || err != nil {
		return 0
	}
	return n
}

// History returns the conversation stored under key. A corrupt value reads
// as an empty history.
func (p *Player) History(key string) []chat.ChatMessage {
	var history []chat.ChatMessage
	if ok, err := p.GetVariable(key, &history); !ok || err != nil {
		return nil
	}
	return history
}

// SetHistory stores history under key, keeping at most limit trailing
// messages when limit is positive.
func (p *Player) SetHistory(key string, history []chat.ChatMessage, limit int) error {
	if limit > 0 {
		history = chat.Last(history, limit)
	}
	return p.SetVariable(key, history)
}

func (p *Player) AddItem(id string, n int) {
	if n <= 0 {
		return
	}
	if p.Inventory == nil {
		p.Inventory = make(map[string]int)
	}
	p.Inventory[id] += n
}

func (p *Player) RemoveItem(id string, n int) error {
	if p.Inventory[id] < n {
		return fmt.Errorf("%w: %s", ErrItemNotOwned, id)
	}
	p.Inventory[id] -= n
	if p.Inventory[id] == 0 {
		delete(p.Inventory, id)
	}
	return nil
}

func (p *Player) HasItem(id string) bool {
	return p.Inventory[id] > 0
}

func (p *Player) ItemCount(id string) int {
	return p.Inventory[id]
}

// ItemIDs returns the owned item ids in a stable order.
func (p *Player) ItemIDs() []string {
	return slices.Sorted(maps.Keys(p.Inventory))
}

func (p *Player) AddGold(n int) {
	p.Gold += n
}

func (p *Player) SpendGold(n int) error {
	if p.Gold < n {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientGold, p.Gold, n)
	}
	p.Gold -= n
	return nil
}

// Actor builds a d20 actor from the player's vitals.
func (p *Player) Actor() (*d20.Actor, error) {
	attrs := make(map[string]int, len(p.Attributes))
	maps.Copy(attrs, p.Attributes)

	actor, err := d20.NewActor(p.ID.String()).
		WithHP(p.MaxHP).
		WithAC(p.AC).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	if p.HP != p.MaxHP && p.HP > 0 {
		if err := actor.SetHP(p.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// Heal restores up to n hit points, never past MaxHP. It returns the amount
// actually restored.
func (p *Player) Heal(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	actor, err := p.Actor()
	if err != nil {
		return 0, err
	}
	before := p.HP
	target := min(before+n, actor.MaxHP())
	if err := actor.SetHP(target); err != nil {
		return 0, fmt.Errorf("failed to set HP: %w", err)
	}
	p.HP = actor.HP()
	return p.HP - before, nil
}

func (p *Player) HasState(name string) bool {
	return slices.Contains(p.States, name)
}

func (p *Player) AddState(name string) {
	if !p.HasState(name) {
		p.States = append(p.States, name)
	}
}

// RemoveStates clears the named states and reports how many were present.
func (p *Player) RemoveStates(names ...string) int {
	removed := 0
	p.States = slices.DeleteFunc(p.States, func(s string) bool {
		if slices.Contains(names, s) {
			removed++
			return true
		}
		return false
	})
	return removed
}
