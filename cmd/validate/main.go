package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/logger"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/services"
)

func main() {
	strict := slices.Contains(os.Args[1:], "--strict")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stderr, cfg.Environment, slog.LevelError)
	hooks := services.NewWebhookClient(cfg.WebhookTimeout, log)

	events := npc.NewVillageRegistry(npc.Deps{
		Hooks:              hooks,
		Artel:              services.NewArtelService(cfg.AgentArtel, hooks, log),
		Webhooks:           cfg.Webhooks,
		AgentArtel:         cfg.AgentArtel,
		DefaultPaintingURL: cfg.DefaultPaintingURL,
		Logger:             log,
	})
	itemReg := items.NewVillageRegistry(items.Deps{
		Hooks:              hooks,
		Webhooks:           cfg.Webhooks,
		DefaultPaintingURL: cfg.DefaultPaintingURL,
		Logger:             log,
	})

	v := &Validator{Strict: strict}
	v.ValidateConfig(cfg)
	v.ValidateRegistries(events, itemReg, npc.ItemRefs())

	for _, w := range v.warnings {
		fmt.Println("warning:" + w)
	}
	if err := v.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Village is valid! (%d NPCs, %d items)\n", len(events.All()), len(itemReg.All()))
}

// Validator collects every problem instead of stopping at the first.
type Validator struct {
	// Strict turns unconfigured webhooks into errors.
	Strict bool

	errors   []string
	warnings []string
}

func (v *Validator) ValidateConfig(cfg *config.Config) {
	invalid, unconfigured := cfg.WebhookProblems()

	for _, name := range slices.Sorted(maps.Keys(invalid)) {
		v.addError(fmt.Sprintf("webhook %s has an invalid URL: %v", name, invalid[name]))
	}

	for _, name := range unconfigured {
		msg := fmt.Sprintf("webhook %s is not configured; NPCs using it will answer with fallbacks", name)
		if v.Strict {
			v.addError(msg)
		} else {
			v.addWarning(msg)
		}
	}

	if cfg.DefaultPaintingURL == "" {
		v.addError("DEFAULT_PAINTING_URL is empty; failed art generation has nothing to show")
	}
	if cfg.SessionPromptTimeout <= 0 {
		v.addWarning("SESSION_PROMPT_TIMEOUT is not positive; idle sessions are never closed")
	}
}

func (v *Validator) ValidateRegistries(events *npc.Registry, itemReg *items.Registry, refs []string) {
	for _, e := range events.All() {
		v.validateIDFormat("NPC name", e.Name)
		if strings.TrimSpace(e.Label) == "" {
			v.addError(fmt.Sprintf("NPC %s has no label", e.Name))
		}
		if e.Graphic == "" {
			v.addWarning(fmt.Sprintf("NPC %s has no graphic", e.Name))
		}
		if e.OnAction == nil {
			v.addError(fmt.Sprintf("NPC %s has no action", e.Name))
		}
	}

	for _, it := range itemReg.All() {
		v.validateIDFormat("item ID", it.ID)
		if strings.TrimSpace(it.Name) == "" {
			v.addError(fmt.Sprintf("item %s has no name", it.ID))
		}
		if it.Price < 0 || it.HPValue < 0 {
			v.addError(fmt.Sprintf("item %s has a negative price or HP value", it.ID))
		}
		if it.Consumable && it.HPValue == 0 && len(it.RemoveStates) == 0 && it.OnUse == nil {
			v.addError(fmt.Sprintf("consumable item %s has no effect", it.ID))
		}
	}

	for _, id := range refs {
		if _, ok := itemReg.Get(id); !ok {
			v.addError(fmt.Sprintf("scripts reference unknown item %s", id))
		}
	}
}

// Err joins every collected error, or returns nil.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return fmt.Errorf("%d problem(s):\n%s", len(v.errors), strings.Join(v.errors, "\n"))
}

func (v *Validator) validateIDFormat(fieldName, id string) {
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase kebab-case", fieldName, id))
	}
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *Validator) addWarning(msg string) {
	v.warnings = append(v.warnings, " "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
