package npc

import (
	"context"
	"fmt"

	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

const (
	photographerName = "village-photographer"

	VarPhotoDeveloping     = "PHOTO_DEVELOPING"
	VarPhotoReady          = "PHOTO_READY"
	VarReceivedPlayerPhoto = "RECEIVED_PLAYER_PHOTO"
	VarCharacterType       = "CHARACTER_TYPE"

	portraitDescription = "A striking portrait that captures your adventurous spirit. The lighting and composition highlight your unique character."
)

type photographer struct {
	deps Deps
}

func newPhotographer(deps Deps) *Event {
	ph := &photographer{deps: deps}
	return &Event{
		Name:      photographerName,
		Label:     "Photographer",
		Graphic:   "female",
		OnAction:  ph.onAction,
		Indicator: photoIndicator,
	}
}

func photoIndicator(ps *state.Player) (emotion.Bubble, bool) {
	if ps.BoolVar(VarPhotoReady) {
		return emotion.Exclamation, true
	}
	return emotion.None, false
}

func (ph *photographer) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(photographerName, p)
	ps := t.state()

	if ps.BoolVar(VarPhotoDeveloping) {
		if err := t.say(ctx, emotion.Exclamation, "Oh, you're back! Your portrait is ready!"); err != nil {
			return err
		}
		ps.DeleteVariable(VarPhotoDeveloping)
		return ph.givePortrait(ctx, t)
	}

	if err := t.say(ctx, emotion.Happy, "*click* Perfect lighting! Oh, hello there! I'm Luna, the village photographer."); err != nil {
		return err
	}
	if ps.BoolVar(VarReceivedPlayerPhoto) {
		return ph.returning(ctx, t)
	}

	picked, err := t.ask(ctx, "What would you like to discuss?",
		choice("Your photography", "photography"),
		choice("Take my portrait", "portrait"),
		choice("Photography techniques", "techniques"),
	)
	if err != nil {
		return err
	}

	switch picked {
	case "photography":
		if err := t.say(ctx, emotion.Idea, "I try to capture moments that tell stories. A single image can contain an entire narrative - the light, the composition, the subject's expression - all working together to evoke emotion."); err != nil {
			return err
		}
		if err := t.say(ctx, emotion.None, "You have an interesting face - very photogenic! Would you like me to take your portrait? I'd be happy to give you a copy."); err != nil {
			return err
		}
		return ph.offerPortrait(ctx, t)
	case "portrait":
		if err := t.say(ctx, emotion.Exclamation, "Oh, you'd like me to take your portrait? Wonderful! Let me set up my camera..."); err != nil {
			return err
		}
		return ph.takePortrait(ctx, t)
	default:
		if err := t.say(ctx, emotion.Idea, "The secret is patience and observation. Notice how light interacts with your subject, how shadows create depth. And always be ready - the perfect moment appears when you least expect it."); err != nil {
			return err
		}
		if err := t.say(ctx, emotion.None, "Speaking of perfect moments, would you mind if I took your portrait? You have such an interesting face!"); err != nil {
			return err
		}
		return ph.offerPortrait(ctx, t)
	}
}

func (ph *photographer) returning(ctx context.Context, t *talk) error {
	picked, err := t.ask(ctx, "It's good to see you again! How can I help you today?",
		choice("View my portrait", "view"),
		choice("Take a new portrait", "new_portrait"),
		choice("Best photography spots", "spots"),
		choice("Just saying hello", "hello"),
	)
	if err != nil {
		return err
	}

	switch picked {
	case "view":
		ps := t.state()
		if err := t.say(ctx, emotion.Like, "I'm so glad you like your portrait! Let me show it to you again..."); err != nil {
			return err
		}
		t.p.OpenGUI(ctx, host.GUIImageViewer, host.ImageView{
			URL:   orDefault(ps.StringVar(items.VarPhotoURL), ph.deps.DefaultPaintingURL),
			Title: orDefault(ps.StringVar(items.VarPhotoTitle), items.DefaultPhotoTitle),
		})
		return nil
	case "new_portrait":
		if err := t.say(ctx, emotion.Exclamation, "You'd like a new portrait? Wonderful! The lighting is different today, so we'll get a completely different mood. Let me set up..."); err != nil {
			return err
		}
		return ph.takePortrait(ctx, t)
	case "spots":
		if err := t.say(ctx, emotion.Idea, "The cliffside at sunset is magical - the way the golden light bathes everything. And the forest after rain has this ethereal quality, with light filtering through the mist and leaves."); err != nil {
			return err
		}
		return t.say(ctx, emotion.None, "If you're looking for portrait locations, the old stone bridge with the ivy creates a wonderful frame. The light there in the late afternoon is simply perfect.")
	default:
		return t.say(ctx, emotion.Happy, "It's always nice to see a friendly face! Your portrait has been one of my favorite works lately. The way the light caught your expression was just perfect.")
	}
}

func (ph *photographer) offerPortrait(ctx context.Context, t *talk) error {
	yes, err := t.ask(ctx, "Would you like me to take your portrait?", yesNo("Yes, please!", "Maybe later")...)
	if err != nil || yes != "yes" {
		return err
	}
	return ph.takePortrait(ctx, t)
}

func (ph *photographer) takePortrait(ctx context.Context, t *talk) error {
	ps := t.state()

	if err := t.say(ctx, emotion.ThreeDot, "Perfect! Now, hold still and look slightly to your right... that's it!"); err != nil {
		return err
	}
	if err := t.say(ctx, emotion.None, "*click* *click* *click* Got it! Let me develop this..."); err != nil {
		return err
	}
	if err := t.say(ctx, emotion.ThreeDot, "The photo needs time to develop. Why don't you explore the village a bit and come back in a moment?"); err != nil {
		return err
	}
	if err := ps.SetVariable(VarPhotoDeveloping, true); err != nil {
		return err
	}

	characterType := orDefault(ps.StringVar(VarCharacterType), "adventurer")
	prompt := fmt.Sprintf("A fantasy portrait photograph of a %s with a determined expression, professional photography, golden hour lighting, bokeh background", characterType)

	t.emote(ctx, emotion.Map(emotion.TokenClock))
	imageURL, err := generateArt(ctx, ph.deps, map[string]string{"prompt": prompt})
	if err != nil {
		ph.deps.Logger.Error("Error generating portrait", "player_id", t.p.ID(), "error", err)
		ps.DeleteVariable(VarPhotoDeveloping)
		return t.say(ctx, emotion.Sad, "Oh no! There seems to be an issue with my camera. The lighting must have changed. Perhaps we can try again later?")
	}

	for k, v := range map[string]any{
		items.VarPhotoURL:         imageURL,
		items.VarPhotoTitle:       items.DefaultPhotoTitle,
		items.VarPhotoDescription: portraitDescription,
		VarPhotoReady:             true,
	} {
		if err := ps.SetVariable(k, v); err != nil {
			return err
		}
	}
	t.emote(ctx, emotion.Exclamation)
	return nil
}

func (ph *photographer) givePortrait(ctx context.Context, t *talk) error {
	ps := t.state()

	if err := t.say(ctx, emotion.Happy, "Here's your portrait! I think it really captures your essence."); err != nil {
		return err
	}
	t.p.OpenGUI(ctx, host.GUIImageViewer, host.ImageView{
		URL:   orDefault(ps.StringVar(items.VarPhotoURL), ph.deps.DefaultPaintingURL),
		Title: "Your Portrait",
	})
	ps.AddItem(items.PlayerPhoto, 1)
	t.notify(ctx, "Received Your Portrait!")

	if err := ps.SetVariable(VarReceivedPlayerPhoto, true); err != nil {
		return err
	}
	ps.DeleteVariable(VarPhotoReady)
	return t.say(ctx, emotion.Happy, "I've added the portrait to your inventory. You can view it anytime you'd like!")
}
