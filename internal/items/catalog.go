package items

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/services"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/webhook"
)

// Item IDs.
const (
	HealingPotion   = "healing-potion"
	Antidote        = "antidote"
	PowerFruit      = "power-fruit"
	VillagePainting = "village-painting"
	PlayerPhoto     = "player-photo"
	QuestScroll     = "quest-scroll"
	ArtCommission   = "art-commission"
	UnprocessedEcho = "unprocessed-echo"
)

// Item types.
const (
	TypeArtwork    = "artwork"
	TypePhotograph = "photograph"
	TypeQuest      = "quest"
	TypeEcho       = "echo"
)

// Deps are the collaborators items need to do their work.
type Deps struct {
	Hooks              services.Webhooks
	Webhooks           config.Webhooks
	DefaultPaintingURL string
	Logger             *slog.Logger
}

// NewVillageRegistry returns a registry holding every village item.
func NewVillageRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := NewRegistry()
	r.Register(&Item{
		ID:          HealingPotion,
		Name:        "Healing Potion",
		Description: "Restores 50 HP",
		Price:       100,
		Consumable:  true,
		HPValue:     50,
		OnUse:       notify("You feel refreshed!"),
	})
	r.Register(&Item{
		ID:           Antidote,
		Name:         "Antidote",
		Description:  "Cures poison status",
		Price:        1,
		Consumable:   true,
		RemoveStates: []string{"poison"},
		OnUse:        notify("The poison has been neutralized!"),
	})
	r.Register(&Item{
		ID:          PowerFruit,
		Name:        "Power Fruit",
		Description: "Increases your strength temporarily",
		Price:       1,
		Consumable:  true,
		OnUse:       notify("You feel stronger!"),
	})
	r.Register(&Item{
		ID:          VillagePainting,
		Name:        "Village Painting",
		Description: "A beautiful painting of the village at sunset. Created by Aria, the village artist.",
		Price:       50,
		Consumable:  true,
		Type:        TypeArtwork,
		OnUse:       viewPainting(deps.DefaultPaintingURL),
	})
	r.Register(&Item{
		ID:          PlayerPhoto,
		Name:        "Your Portrait",
		Description: "A beautiful portrait photograph taken by Luna, the village photographer.",
		Price:       50,
		Consumable:  true,
		Type:        TypePhotograph,
		OnUse:       viewPhoto(deps.DefaultPaintingURL),
	})
	r.Register(&Item{
		ID:          QuestScroll,
		Name:        "Quest Scroll",
		Description: "A scroll containing details of a quest from the Quest Master. Give this to the Artist to commission a painting.",
		Type:        TypeQuest,
		OnUse:       readScroll,
	})
	r.Register(&Item{
		ID:          ArtCommission,
		Name:        "Art Commission",
		Description: "A request for artwork from the Quest Master. Use this item to create a masterpiece.",
		Consumable:  true,
		Type:        TypeQuest,
		OnUse:       (&commission{deps: deps}).use,
	})
	r.Register(&Item{
		ID:          UnprocessedEcho,
		Name:        "Unprocessed Echo",
		Description: "A fragment of memory woven by the Echo Weaver. The Echo Seer can draw revelations from it.",
		Type:        TypeEcho,
		OnUse:       readEcho,
	})
	return r
}

func notify(msg string) UseFunc {
	return func(ctx context.Context, p host.Player) (bool, error) {
		p.ShowNotification(ctx, msg)
		return true, nil
	}
}

// Viewing a keepsake never uses it up.
func viewPainting(defaultURL string) UseFunc {
	return func(ctx context.Context, p host.Player) (bool, error) {
		ps := p.State()
		p.ShowNotification(ctx, "You admire the beautiful painting...")
		p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{
			URL:         orDefault(ps.StringVar(VarPaintingURL), defaultURL),
			Title:       orDefault(ps.StringVar(VarPaintingTitle), DefaultPaintingTitle),
			Description: orDefault(ps.StringVar(VarPaintingDescription), DefaultPaintingDescription),
		})
		return false, nil
	}
}

func viewPhoto(defaultURL string) UseFunc {
	return func(ctx context.Context, p host.Player) (bool, error) {
		ps := p.State()
		p.ShowNotification(ctx, "You admire the beautiful photograph...")
		p.OpenGUI(ctx, host.GUIImageViewer, host.ImageView{
			URL:   orDefault(ps.StringVar(VarPhotoURL), defaultURL),
			Title: orDefault(ps.StringVar(VarPhotoTitle), DefaultPhotoTitle),
		})
		return false, nil
	}
}

func readScroll(ctx context.Context, p host.Player) (bool, error) {
	ps := p.State()
	text := fmt.Sprintf("Quest: %s\n\nDescription: %s\n\nTheme: %s",
		orDefault(ps.StringVar(VarQuestTitle), DefaultQuestTitle),
		orDefault(ps.StringVar(VarQuestDescription), DefaultQuestDescription),
		orDefault(ps.StringVar(VarQuestTheme), DefaultQuestTheme))
	return false, p.ShowText(ctx, text, host.TextOptions{Speaker: p.Name()})
}

func readEcho(ctx context.Context, p host.Player) (bool, error) {
	ps := p.State()
	name := ps.StringVar(VarFragmentName)
	if name == "" {
		return false, p.ShowText(ctx, "The echo is silent. Perhaps the Echo Weaver can coax it into form.", host.TextOptions{Speaker: p.Name()})
	}

	text := "Echo: " + name
	if desc := ps.StringVar(VarFragmentDescription); desc != "" {
		text += "\n\n" + desc
	}
	if err := p.ShowText(ctx, text, host.TextOptions{Speaker: p.Name()}); err != nil {
		return false, err
	}
	if u := ps.StringVar(VarFragmentMediaURL); u != "" {
		p.OpenGUI(ctx, host.GUIImageViewer, host.ImageView{URL: u, Title: name})
	}
	return false, nil
}

type commission struct {
	deps Deps
}

func (c *commission) use(ctx context.Context, p host.Player) (bool, error) {
	ps := p.State()
	title := orDefault(ps.StringVar(VarQuestTitle), "Art Commission")
	description := orDefault(ps.StringVar(VarQuestDescription), "Create a beautiful artwork based on the given theme.")

	if ps.BoolVar(VarCommissionCompleted) {
		p.ShowNotification(ctx, "You admire your completed artwork...")
		p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{
			URL:         ps.StringVar(VarCompletedArtworkURL),
			Title:       title,
			Description: description,
		})
		return false, nil
	}

	theme := orDefault(ps.StringVar(VarQuestTheme), DefaultQuestTheme)
	p.ShowNotification(ctx, "You begin working on the art commission...")
	if err := p.ShowText(ctx, "You focus on creating artwork based on the theme: "+theme, host.TextOptions{Speaker: p.Name()}); err != nil {
		return false, err
	}

	url := c.deps.Webhooks.URL(config.WebhookArtGenerator)
	resp, err := c.deps.Hooks.PostJSON(ctx, url, map[string]string{
		"prompt":     theme,
		"playerName": orDefault(p.Name(), "Adventurer"),
	}, nil)
	if err != nil {
		c.deps.Logger.Error("Art commission failed", "player_id", p.ID(), "error", err)
		return false, p.ShowText(ctx, "You're having trouble with inspiration right now. Perhaps try again later?", host.TextOptions{Speaker: p.Name()})
	}

	imageURL := webhook.ImageURL(resp.Body)
	if imageURL == "" {
		c.deps.Logger.Info("Art commission returned no image, using default", "player_id", p.ID())
		imageURL = c.deps.DefaultPaintingURL
	}

	if err := ps.SetVariable(VarCompletedArtworkURL, imageURL); err != nil {
		return false, err
	}
	if err := ps.SetVariable(VarCommissionCompleted, true); err != nil {
		return false, err
	}
	p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{URL: imageURL, Title: title, Description: description})

	gold := RewardGold(ps.StringVar(VarQuestReward))
	ps.AddGold(gold)
	p.ShowNotification(ctx, fmt.Sprintf("Received: %d gold", gold))

	if err := ps.SetVariable(VarQuestCompleted, true); err != nil {
		return false, err
	}
	ps.DeleteVariable(VarActiveQuest)
	return false, nil
}
