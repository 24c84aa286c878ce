package npc

import (
	"context"
	"fmt"

	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
)

const (
	artistName = "village-artist"

	// VarReceivedVillagePainting is set once Aria has gifted her painting.
	VarReceivedVillagePainting = "RECEIVED_VILLAGE_PAINTING"

	magicalVillagePrompt      = "A magical fantasy village with glowing lanterns and ethereal creatures, painted in a vibrant impressionist style"
	magicalVillageTitle       = "Magical Village"
	magicalVillageDescription = "A magical fantasy village with glowing lanterns and ethereal creatures. My newest creation!"
)

type artist struct {
	deps Deps
}

func newArtist(deps Deps) *Event {
	a := &artist{deps: deps}
	return &Event{
		Name:     artistName,
		Label:    "Artist",
		Graphic:  "female",
		OnAction: a.onAction,
	}
}

func (a *artist) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(artistName, p)
	ps := t.state()

	if err := t.say(ctx, emotion.Happy, "Hello! I'm Aria, the village artist."); err != nil {
		return err
	}
	if ps.HasItem(items.QuestScroll) {
		return a.commission(ctx, t)
	}
	if ps.BoolVar(VarReceivedVillagePainting) {
		return a.returning(ctx, t)
	}
	return a.firstVisit(ctx, t)
}

func (a *artist) firstVisit(ctx context.Context, t *talk) error {
	picked, err := t.ask(ctx, "What would you like to talk about?",
		choice("Your artwork", "artwork"),
		choice("The village", "village"),
		choice("Just saying hello", "hello"),
	)
	if err != nil {
		return err
	}

	switch picked {
	case "artwork":
		if err := t.say(ctx, emotion.Idea, "I find inspiration in the natural beauty surrounding our village. Each painting captures a moment in time, a feeling that might otherwise be forgotten."); err != nil {
			return err
		}
		if err := t.say(ctx, emotion.None, "You know what? You seem to have a genuine appreciation for art. I'd like you to have one of my paintings of the village at sunset."); err != nil {
			return err
		}
		if err := a.giftPainting(ctx, t); err != nil {
			return err
		}
		return t.say(ctx, emotion.None, "I hope it brings you joy and reminds you of our little village wherever your journey takes you.")
	case "village":
		if err := t.say(ctx, emotion.Idea, "This village has such character! The way the light falls between the buildings at sunset... simply magical. I've been trying to capture that in my latest piece."); err != nil {
			return err
		}
		if err := t.say(ctx, emotion.None, "Speaking of which, I just finished a painting of that very scene. Would you like to have it? I'd be honored if you'd take it with you on your journey."); err != nil {
			return err
		}
		if err := a.giftPainting(ctx, t); err != nil {
			return err
		}
		return t.say(ctx, emotion.None, "Art is meant to be shared. I hope this painting reminds you of the beauty you can find in unexpected places.")
	default:
		return t.say(ctx, emotion.Happy, "It's always nice to meet a friendly traveler. Feel free to visit my studio anytime!")
	}
}

func (a *artist) giftPainting(ctx context.Context, t *talk) error {
	ps := t.state()
	ps.AddItem(items.VillagePainting, 1)
	t.notify(ctx, "Received Village Painting!")
	return ps.SetVariable(VarReceivedVillagePainting, true)
}

func (a *artist) returning(ctx context.Context, t *talk) error {
	picked, err := t.ask(ctx, "It's good to see you again! How can I help you today?",
		choice("View the painting", "view"),
		choice("See new painting", "new_painting"),
		choice("Ask about your painting", "painting"),
		choice("Your inspiration", "inspiration"),
		choice("Just saying hello", "hello"),
	)
	if err != nil {
		return err
	}

	switch picked {
	case "view":
		ps := t.state()
		if err := t.say(ctx, emotion.Idea, "Here it is. I still remember every brushstroke."); err != nil {
			return err
		}
		t.p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{
			URL:         orDefault(ps.StringVar(items.VarPaintingURL), a.deps.DefaultPaintingURL),
			Title:       orDefault(ps.StringVar(items.VarPaintingTitle), items.DefaultPaintingTitle),
			Description: orDefault(ps.StringVar(items.VarPaintingDescription), items.DefaultPaintingDescription),
			Artist:      "Aria",
		})
		return nil
	case "new_painting":
		return a.newPainting(ctx, t)
	case "painting":
		return t.sayAll(ctx,
			"How do you like the painting I gave you? I put my heart into capturing the essence of our village in that piece.",
			"Each brushstroke was carefully placed to evoke the feeling of peace that washes over the village at sunset. The colors blend just as they do in the sky.",
		)
	case "inspiration":
		return t.sayAll(ctx,
			"My inspiration comes from the world around us - the way light plays on surfaces, how shadows create depth, the emotions evoked by different scenes.",
			"I believe art should capture not just what we see, but what we feel when we see it. That's what I tried to do with the painting I gave you.",
		)
	default:
		return t.say(ctx, emotion.None, "It's always a pleasure to see you again! I hope my painting has brought you some joy on your travels.")
	}
}

func (a *artist) newPainting(ctx context.Context, t *talk) error {
	if err := t.say(ctx, emotion.None, "I've gotten better since then! I've been experimenting with a new technique that captures magical elements. Let me show you my latest creation..."); err != nil {
		return err
	}

	imageURL, err := generateArt(ctx, a.deps, map[string]string{"prompt": magicalVillagePrompt})
	if err != nil {
		a.deps.Logger.Error("Error generating painting", "player_id", t.p.ID(), "error", err)
		return t.say(ctx, emotion.Sad, "I'm sorry, but I seem to be having trouble with my new painting. Perhaps we can try again later?")
	}

	t.p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{
		URL:         imageURL,
		Title:       magicalVillageTitle,
		Description: magicalVillageDescription,
		Artist:      "Aria",
	})
	if err := t.say(ctx, emotion.Question, "What do you think? I've been experimenting with new techniques to capture magical elements. Would you like to keep it?"); err != nil {
		return err
	}

	keep, err := t.ask(ctx, "Would you like to keep this painting?", yesNo("Yes, I'd love to have it", "No thank you")...)
	if err != nil {
		return err
	}
	if keep != "yes" {
		return t.say(ctx, emotion.None, "That's alright. I'll keep working on my technique. Feel free to visit again later to see my new creations!")
	}

	if err := setPainting(t, imageURL, magicalVillageTitle, magicalVillageDescription); err != nil {
		return err
	}
	t.state().AddItem(items.VillagePainting, 1)
	t.notify(ctx, "Received Magical Village Painting!")
	return t.say(ctx, emotion.Happy, "I'm so glad you like it! It's yours to keep. You can view it anytime from your inventory.")
}

func (a *artist) commission(ctx context.Context, t *talk) error {
	ps := t.state()
	theme := orDefault(ps.StringVar(items.VarQuestTheme), items.DefaultQuestTheme)
	title := orDefault(ps.StringVar(items.VarQuestTitle), items.DefaultQuestTitle)

	if err := t.say(ctx, emotion.Exclamation, "Oh! You have a commission request from the Quest Master? Let me see that scroll..."); err != nil {
		return err
	}
	if err := t.say(ctx, emotion.Idea, fmt.Sprintf("Hmm, a painting of %s... That's an interesting subject! I'd be happy to create this for you.", theme)); err != nil {
		return err
	}
	if err := t.say(ctx, emotion.ThreeDot, "Let me work on this for a moment... *mixing paints and sketching*"); err != nil {
		return err
	}

	imageURL, err := generateArt(ctx, a.deps, map[string]string{
		"prompt":     theme,
		"playerName": orDefault(t.p.Name(), "Adventurer"),
	})
	if err != nil {
		a.deps.Logger.Error("Error generating commission", "player_id", t.p.ID(), "error", err)
		return t.say(ctx, emotion.Sad, "I'm sorry, but I seem to be having trouble with this commission. Perhaps we can try again later?")
	}

	if ps.HasItem(items.QuestScroll) {
		if err := ps.RemoveItem(items.QuestScroll, 1); err != nil {
			return err
		}
	}
	description := fmt.Sprintf("A beautiful painting based on the theme: %s. Created by Aria, the village artist.", theme)
	if err := setPainting(t, imageURL, title, description); err != nil {
		return err
	}
	ps.AddItem(items.VillagePainting, 1)

	if err := t.say(ctx, emotion.Happy, "It's finished! I hope you like it."); err != nil {
		return err
	}
	t.p.OpenGUI(ctx, host.GUIArtworkViewer, host.ArtworkView{URL: imageURL, Title: title, Description: description, Artist: "Aria"})

	if err := ps.SetVariable(items.VarQuestCompleted, true); err != nil {
		return err
	}
	t.notify(ctx, "Commission Complete: "+title)
	return t.say(ctx, emotion.None, "I've put my heart into this piece. You can view it anytime from your inventory. Please let the Quest Master know the commission is complete!")
}

func setPainting(t *talk, imageURL, title, description string) error {
	ps := t.state()
	for k, v := range map[string]string{
		items.VarPaintingURL:         imageURL,
		items.VarPaintingTitle:       title,
		items.VarPaintingDescription: description,
	} {
		if err := ps.SetVariable(k, v); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
