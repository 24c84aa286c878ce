package npc

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/textfilter"
)

const (
	dreamInterpreterName = "village-dream-interpreter"

	VarDreamHistory = "DREAM_INTERPRETER_HISTORY"

	dreamContextSize  = 10
	dreamHistoryLimit = 50
	dreamChunkSize    = 150

	dreamGreeting = "Ah, a visitor to my humble chamber of dream analysis. I am Dr. Sigmund Freud, devoted to uncovering the mysteries of the unconscious mind. Dreams, you see, are the royal road to the unconscious. Perhaps you have come to explore the hidden meanings within your own dreams?"

	plainTextInstructions = "IMPORTANT: Please format your response as plain text without markdown formatting. Do not use headers (##), bold (**text**), or other markdown. Keep paragraphs short (2-3 sentences max) for better readability in a dialogue box. Use simple language and natural speech patterns. For actions, use *asterisks* like *adjusts glasses* which will be preserved."
)

type dreamInterpreter struct {
	deps Deps
}

func newDreamInterpreter(deps Deps) *Event {
	d := &dreamInterpreter{deps: deps}
	return &Event{
		Name:     dreamInterpreterName,
		Label:    "Dream Interpreter",
		Graphic:  "female",
		OnAction: d.onAction,
	}
}

func (d *dreamInterpreter) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(dreamInterpreterName, p)
	ps := t.state()
	history := ps.History(VarDreamHistory)

	if len(history) == 0 {
		if err := t.say(ctx, emotion.Idea, dreamGreeting); err != nil {
			return err
		}
		history = append(history, chat.Agent(dreamGreeting))
		if err := ps.SetHistory(VarDreamHistory, history, dreamHistoryLimit); err != nil {
			return err
		}
	}

	picked, err := t.ask(ctx, "What would you like to discuss?",
		choice("Interpret a recent dream", "dream"),
		choice("Ask about dream symbolism", "symbolism"),
		choice("Discuss the unconscious mind", "unconscious"),
		choice("Ask a custom question", "custom"),
		choice("Continue our discussion", "continue"),
	)
	if err != nil || picked == "" {
		return err
	}

	question, err := d.question(ctx, t, picked, history)
	if err != nil || question == "" {
		return err
	}

	if err := t.say(ctx, emotion.ThreeDot, "Hmm, let me contemplate this for a moment..."); err != nil {
		return err
	}

	reply := d.deps.Artel.Chat(ctx, d.deps.AgentArtel.DreamInterpreter,
		question+"\n\n"+plainTextInstructions,
		chat.Last(history, dreamContextSize))
	if strings.TrimSpace(reply) == "" {
		d.deps.Logger.Error("Dream interpreter returned an empty reply", "player_id", p.ID())
		return t.say(ctx, emotion.Confusion, "Curious... my mind seems clouded at the moment. Perhaps we should continue this analysis in our next session.")
	}

	t.emote(ctx, emotion.FromText(reply))
	for _, chunk := range textfilter.SplitSentences(reply, dreamChunkSize) {
		if err := t.say(ctx, emotion.None, chunk); err != nil {
			return err
		}
	}

	history = append(history, chat.User(question), chat.Agent(reply))
	if err := ps.SetHistory(VarDreamHistory, history, dreamHistoryLimit); err != nil {
		return err
	}
	return t.say(ctx, emotion.Idea, "Is there anything else you'd like to explore about your inner psyche? The unconscious reveals itself in layers, and our work is never truly complete.")
}

// question turns the picked topic into the message sent to the agent. An
// empty question means the player backed out.
func (d *dreamInterpreter) question(ctx context.Context, t *talk, picked string, history []chat.ChatMessage) (string, error) {
	switch picked {
	case "dream":
		if err := t.say(ctx, emotion.Cloud, "Excellent. Please describe your dream in as much detail as you can recall. The symbols, emotions, and figures that appear are all significant."); err != nil {
			return "", err
		}
		dream, err := d.prompt(ctx, t, "Describe your dream:", 500,
			"I see you are hesitant to share. Perhaps another time when you feel more comfortable.")
		if err != nil || dream == "" {
			return "", err
		}
		return fmt.Sprintf("I had this dream: %s. What does it mean?", dream), nil
	case "symbolism":
		if err := t.say(ctx, emotion.Question, "Symbols in dreams are the language of the unconscious. What particular symbol interests you?"); err != nil {
			return "", err
		}
		symbol, err := d.prompt(ctx, t, "What dream symbol interests you?", 100,
			"Perhaps you need more time to contemplate the symbols in your dreams. We can discuss this another time.")
		if err != nil || symbol == "" {
			return "", err
		}
		return fmt.Sprintf("What does the symbol of %s mean in dreams?", symbol), nil
	case "unconscious":
		if err := t.say(ctx, emotion.Star, "Ah, the unconscious mind - the vast reservoir of repressed thoughts, primitive instincts, and desires too uncomfortable for the conscious mind to acknowledge. What aspect of it shall we explore?"); err != nil {
			return "", err
		}
		return "Please explain your theory of the unconscious mind and how it influences our dreams and behavior.", nil
	case "custom":
		t.emote(ctx, emotion.Question)
		return d.prompt(ctx, t, "What would you like to ask?", 200,
			"You seem uncertain what to ask. Take your time to formulate your thoughts, and return when you are ready.")
	default:
		if err := t.say(ctx, emotion.Idea, "Yes, let us continue where we left off. The unconscious mind reveals itself gradually."); err != nil {
			return "", err
		}
		if len(history) >= 2 {
			return "Please continue explaining based on what you just told me.", nil
		}
		return "Let's continue our discussion about dreams and the unconscious mind.", nil
	}
}

// prompt reads free text from the player. A blank answer is met with
// declined and returns "".
func (d *dreamInterpreter) prompt(ctx context.Context, t *talk, label string, maxLen int, declined string) (string, error) {
	in, err := t.input(ctx, label, maxLen)
	if err != nil {
		return "", err
	}
	in = strings.TrimSpace(in)
	if in == "" {
		return "", t.say(ctx, emotion.None, declined)
	}
	return in, nil
}
