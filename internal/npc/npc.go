// Package npc holds the village NPC dialogue scripts.
//
// A script runs for one player at a time and talks through host.Player.
// Webhook failures never escape a script: they are logged and answered with
// an in-character line. Host failures (the player went away) abort the
// script and are returned.
package npc

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/services"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// Event is an NPC placed on the map.
type Event struct {
	Name    string `json:"name"`
	Label   string `json:"label"` // shown above the sprite
	Graphic string `json:"graphic"`

	OnAction func(ctx context.Context, p host.Player) error `json:"-"`

	// Indicator, when set, reports a bubble to keep showing over the NPC
	// for this player, e.g. while a reward is waiting.
	Indicator func(ps *state.Player) (emotion.Bubble, bool) `json:"-"`
}

// Registry is the set of NPCs keyed by name.
type Registry struct {
	events map[string]*Event
}

func NewRegistry() *Registry {
	return &Registry{events: make(map[string]*Event)}
}

func (r *Registry) Register(e *Event) {
	r.events[e.Name] = e
}

func (r *Registry) Get(name string) (*Event, bool) {
	e, ok := r.events[name]
	return e, ok
}

// All returns every event sorted by name.
func (r *Registry) All() []*Event {
	out := make([]*Event, 0, len(r.events))
	for _, name := range slices.Sorted(maps.Keys(r.events)) {
		out = append(out, r.events[name])
	}
	return out
}

// Deps are the collaborators scripts call out to.
type Deps struct {
	Hooks              services.Webhooks
	Artel              services.Artel
	Webhooks           config.Webhooks
	AgentArtel         config.AgentArtel
	DefaultPaintingURL string
	Logger             *slog.Logger
}

func (d Deps) url(name string) string {
	return d.Webhooks.URL(name)
}

// NewVillageRegistry returns a registry with every village NPC.
func NewVillageRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := NewRegistry()
	r.Register(newShopkeeper())
	r.Register(newArtist(deps))
	r.Register(newMentor(deps))
	r.Register(newQuestGiver(deps))
	r.Register(newPhotographer(deps))
	r.Register(newDreamInterpreter(deps))
	r.Register(newEchoWeaver(deps))
	r.Register(newEchoSeer(deps))
	return r
}

// talk is one conversation between an NPC and a player.
type talk struct {
	npc string
	p   host.Player
}

func newTalk(npc string, p host.Player) *talk {
	return &talk{npc: npc, p: p}
}

func (t *talk) state() *state.Player {
	return t.p.State()
}

// emote shows a bubble over the NPC. None is ignored.
func (t *talk) emote(ctx context.Context, b emotion.Bubble) {
	if b == emotion.None {
		return
	}
	t.p.ShowEmotion(ctx, t.npc, b)
}

// say shows the bubble, if any, and then the line.
func (t *talk) say(ctx context.Context, b emotion.Bubble, text string) error {
	t.emote(ctx, b)
	return t.p.ShowText(ctx, text, host.TextOptions{Speaker: t.npc})
}

// sayAll shows lines in order without bubbles.
func (t *talk) sayAll(ctx context.Context, lines ...string) error {
	for _, line := range lines {
		if err := t.say(ctx, emotion.None, line); err != nil {
			return err
		}
	}
	return nil
}

// mutter shows a line that advances on its own.
func (t *talk) mutter(ctx context.Context, text string) error {
	return t.p.ShowText(ctx, text, host.TextOptions{Speaker: t.npc, AutoNext: true})
}

// ask offers choices and returns the picked value, or "" when dismissed.
func (t *talk) ask(ctx context.Context, prompt string, choices ...host.Choice) (string, error) {
	c, err := t.p.ShowChoices(ctx, prompt, choices, host.TextOptions{Speaker: t.npc})
	if err != nil || c == nil {
		return "", err
	}
	return c.Value, nil
}

func (t *talk) input(ctx context.Context, prompt string, maxLen int) (string, error) {
	return t.p.ShowInputBox(ctx, prompt, host.InputOptions{Speaker: t.npc, MaxLength: maxLen})
}

func (t *talk) notify(ctx context.Context, msg string) {
	t.p.ShowNotification(ctx, msg)
}

func choice(text, value string) host.Choice {
	return host.Choice{Text: text, Value: value}
}

func yesNo(yes, no string) []host.Choice {
	return []host.Choice{choice(yes, "yes"), choice(no, "no")}
}

// Indicators returns the bubbles each NPC keeps showing for ps.
func (r *Registry) Indicators(ps *state.Player) map[string]emotion.Bubble {
	out := make(map[string]emotion.Bubble)
	for name, e := range r.events {
		if e.Indicator == nil {
			continue
		}
		if b, ok := e.Indicator(ps); ok {
			out[name] = b
		}
	}
	return out
}

// ItemRefs lists the item ids scripts sell, hand out or take away.
func ItemRefs() []string {
	refs := []string{items.VillagePainting, items.PlayerPhoto, items.QuestScroll, items.UnprocessedEcho}
	for _, s := range shopShelf {
		refs = append(refs, s.id)
	}
	slices.Sort(refs)
	return refs
}
