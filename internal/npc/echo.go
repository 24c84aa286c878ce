package npc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/services"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/webhook"
)

const (
	echoWeaverName = "echo-weaver-event"
	echoSeerName   = "echo-seer-event"

	initialFragmentPrompt = "As an AI agent for the game 'Fractal of You', generate the details for an initial media fragment. The player has just started their journey in the world of Artelio. This first fragment should be mysterious, hinting at deeper meanings without full disclosure. Provide a `fragmentId`, `fragmentName`, `fragmentType` (choose one from 'audio', 'image', 'video'), a placeholder `mediaUrl` (e.g., 'https://example.com/media/placeholder.[ext]' where [ext] is appropriate for the type), an `initialDescription` that evokes curiosity, and a brief `initialRevelation` that is enigmatic. The fragment should feel like a lost piece of the player's own fractal identity, not explicitly tied to Clarity or Chaos yet."
)

type echoWeaver struct {
	deps Deps
}

func newEchoWeaver(deps Deps) *Event {
	w := &echoWeaver{deps: deps}
	return &Event{
		Name:     echoWeaverName,
		Label:    "Echo Weaver",
		Graphic:  "female",
		OnAction: w.onAction,
	}
}

func (w *echoWeaver) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(echoWeaverName, p)
	ps := t.state()

	if ps.StringVar(items.VarFragmentID) != "" {
		name := orDefault(ps.StringVar(items.VarFragmentName), "your current Echo")
		return t.say(ctx, emotion.None, fmt.Sprintf("You are already attuned to %s. Seek its meaning before drawing forth another.", name))
	}

	if err := t.say(ctx, emotion.None, "The echoes of Artelio resonate around you, seeker. Some are faint, others cry out to be understood. Allow me to draw one forth for you..."); err != nil {
		return err
	}

	url := w.deps.url(config.WebhookGetItem)
	if !config.IsConfigured(url) {
		w.deps.Logger.Error("Echo weaver webhook is not configured", "webhook", config.WebhookGetItem)
		return t.say(ctx, emotion.None, "My connection to the echoes is faint today. Please return later.")
	}

	t.emote(ctx, emotion.Idea)
	if err := t.mutter(ctx, "Hmm, let me concentrate..."); err != nil {
		return err
	}

	resp, err := w.deps.Hooks.PostJSON(ctx, url, map[string]string{
		"system_prompt": initialFragmentPrompt,
		"actionType":    "generate_initial_fragment",
		"playerId":      p.ID(),
	}, nil)
	if err != nil {
		w.deps.Logger.Error("Error fetching initial fragment", "player_id", p.ID(), "error", err)
		var statusErr *services.StatusError
		if errors.As(err, &statusErr) {
			return t.say(ctx, emotion.Sad, fmt.Sprintf("I tried to weave an Echo for you, but something went awry with the threads... (Error: %d)", statusErr.Status))
		}
		return t.say(ctx, emotion.Confusion, "I seem to have tangled the threads of fate... My apologies, I couldn't retrieve your Echo.")
	}

	fragment, err := webhook.DecodeFragment(resp.Body)
	if err != nil {
		w.deps.Logger.Error("Could not read fragment", "player_id", p.ID(), "error", err, "sample", webhook.Sample(resp.Body, 200))
		switch {
		case errors.Is(err, webhook.ErrFragmentDistorted):
			return t.say(ctx, emotion.Confusion, "The Echo's form was distorted. I couldn't quite make it out clearly.")
		case errors.Is(err, webhook.ErrFragmentMissing):
			return t.say(ctx, emotion.Question, "The echoes are faint and muddled today. I couldn't draw forth a distinct fragment for you.")
		case errors.Is(err, webhook.ErrFragmentShape):
			return t.say(ctx, emotion.Sad, "The echo I drew was... elusive. Its essence slipped away. Please try again.")
		default:
			return t.say(ctx, emotion.Confusion, "I seem to have tangled the threads of fate... My apologies, I couldn't retrieve your Echo.")
		}
	}
	if fragment.ID == "" {
		w.deps.Logger.Error("Fragment has no id", "player_id", p.ID())
		return t.say(ctx, emotion.Sad, "I reached for an Echo, but it vanished before I could grasp it. My apologies.")
	}

	t.emote(ctx, emotion.Happy)
	if err := storeFragment(ps, fragment); err != nil {
		return err
	}
	ps.AddItem(items.UnprocessedEcho, 1)
	t.notify(ctx, "Received: Unprocessed Echo")

	return t.sayAll(ctx,
		fmt.Sprintf("Ah, the threads have formed an Echo: '%s'. It is a %s fragment that whispers of '%s'.", fragment.Name, fragment.Type, fragment.Description),
		fmt.Sprintf("A deeper current reveals: \"%s\". Ponder this, and we shall speak more. Hold onto this Echo. Seek others in Artelio who can unravel its deeper meanings. The paths of Clarity and Chaos may offer different perspectives on what you find.", fragment.Revelation),
	)
}

func storeFragment(ps *state.Player, f webhook.Fragment) error {
	for k, v := range map[string]string{
		items.VarFragmentID:            f.ID,
		items.VarFragmentName:          f.Name,
		items.VarFragmentType:          f.Type,
		items.VarFragmentMediaURL:      f.MediaURL,
		items.VarFragmentDescription:   f.Description,
		items.FragmentRevelationVar(0): f.Revelation,
	} {
		if err := ps.SetVariable(k, v); err != nil {
			return err
		}
	}
	return nil
}

// revelations returns the stored revelations in order, stopping at the
// first gap.
func revelations(ps *state.Player) []string {
	var out []string
	for i := 0; ps.HasVariable(items.FragmentRevelationVar(i)); i++ {
		out = append(out, ps.StringVar(items.FragmentRevelationVar(i)))
	}
	return out
}

type echoSeer struct {
	deps Deps
}

type fragmentDetails struct {
	FragmentID         string `json:"fragmentId"`
	FragmentName       string `json:"fragmentName"`
	FragmentType       string `json:"fragmentType,omitempty"`
	MediaURL           string `json:"mediaUrl,omitempty"`
	InitialDescription string `json:"initialDescription"`
	InitialRevelation  string `json:"initialRevelation,omitempty"`
}

type revelationRequest struct {
	ActionType          string          `json:"actionType"`
	PlayerID            string          `json:"playerId"`
	FragmentDetails     fragmentDetails `json:"fragment_details"`
	ExistingRevelations []string        `json:"existing_revelations"`
	SystemPrompt        string          `json:"system_prompt"`
}

func newEchoSeer(deps Deps) *Event {
	s := &echoSeer{deps: deps}
	return &Event{
		Name:     echoSeerName,
		Label:    "Echo Seer",
		Graphic:  "female",
		OnAction: s.onAction,
	}
}

func (s *echoSeer) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(echoSeerName, p)
	ps := t.state()

	fragmentID := ps.StringVar(items.VarFragmentID)
	if !ps.HasItem(items.UnprocessedEcho) || fragmentID == "" {
		return t.say(ctx, emotion.Question, "You don't seem to have an Echo that needs processing, or perhaps the one you have is already fully understood.")
	}

	details := fragmentDetails{
		FragmentID:         fragmentID,
		FragmentName:       orDefault(ps.StringVar(items.VarFragmentName), "your current Echo"),
		FragmentType:       ps.StringVar(items.VarFragmentType),
		MediaURL:           ps.StringVar(items.VarFragmentMediaURL),
		InitialDescription: orDefault(ps.StringVar(items.VarFragmentDescription), "its mysteries"),
		InitialRevelation:  ps.StringVar(items.FragmentRevelationVar(0)),
	}
	known := revelations(ps)
	stage := len(known)

	t.emote(ctx, emotion.Idea)
	picked, err := t.ask(ctx,
		fmt.Sprintf("I sense you hold an Echo: '%s'. It whispers of '%s'. Would you like me to delve deeper into its meaning? This will be revelation number %d.", details.FragmentName, details.InitialDescription, stage),
		choice("Yes, reveal more!", "process"),
		choice("Not right now.", "cancel"),
	)
	if err != nil {
		return err
	}
	if picked != "process" {
		return t.say(ctx, emotion.ThreeDot, "Very well. Return when you are ready to explore its depths.")
	}

	t.emote(ctx, emotion.Idea)
	if err := t.mutter(ctx, "Let me focus on the Echo's resonance..."); err != nil {
		return err
	}

	url := s.deps.url(config.WebhookProcessFragment)
	if !config.IsConfigured(url) {
		s.deps.Logger.Error("Echo seer webhook is not configured", "webhook", config.WebhookProcessFragment)
		return t.say(ctx, emotion.Sad, "My connection to the deeper echoes is disrupted. I cannot process this now.")
	}

	req := revelationRequest{
		ActionType:          fmt.Sprintf("process_fragment_stage_%d", stage),
		PlayerID:            p.ID(),
		FragmentDetails:     details,
		ExistingRevelations: known,
		SystemPrompt: fmt.Sprintf("As the Echo Seer AI, the player has brought you a media fragment (%s) named '%s' with the URL %s. Its initial description is '%s'. The known revelations so far are: [%s]. Provide the NEXT layer of revelation for this fragment. It should build upon the existing information, adding depth and mystery. Respond with a JSON object containing 'newRevelationText' and an 'emotion' (e.g., 'think', 'surprise', 'happy').",
			details.FragmentType, details.FragmentName, details.MediaURL, details.InitialDescription, strings.Join(known, "; ")),
	}
	if req.ExistingRevelations == nil {
		req.ExistingRevelations = []string{}
	}

	resp, err := s.deps.Hooks.PostJSON(ctx, url, req, nil)
	if err != nil {
		s.deps.Logger.Error("Error processing fragment", "player_id", p.ID(), "error", err)
		return t.say(ctx, emotion.Sad, "An interference... the Echo's true voice is muddled. Please try again later.")
	}

	text, emo, ok := webhook.DecodeRevelation(resp.Body)
	if !ok {
		s.deps.Logger.Error("Unexpected response from processing webhook", "player_id", p.ID(), "sample", webhook.Sample(resp.Body, 200))
		return t.say(ctx, emotion.Confusion, "The Echo's voice is faint... I couldn't quite grasp its deeper meaning this time.")
	}

	t.emote(ctx, emotion.Map(orDefault(emo, emotion.TokenIdea)))
	if err := ps.SetVariable(items.FragmentRevelationVar(stage), text); err != nil {
		return err
	}
	return t.say(ctx, emotion.None, fmt.Sprintf("The Echo resonates anew: \"%s\"", text))
}
