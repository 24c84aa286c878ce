package npc

import (
	"context"
	"strings"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/textfilter"
	"github.com/jwebster45206/artel-village/pkg/webhook"
	"github.com/tidwall/gjson"
)

const (
	mentorName = "village-mentor"

	VarMentorHistory = "MENTOR_HISTORY"

	mentorHistoryLimit = 10
	mentorChunkSize    = 200

	mentorGreeting   = "Welcome, seeker of wisdom. I am Minerva, the village mentor. My purpose is to guide those who wish to understand the deeper truths of existence."
	mentorUnexpected = "The path of wisdom often winds through unexpected terrain. Perhaps we should revisit this topic when the way forward becomes clearer."
	mentorSpeechless = "Forgive me, but I find myself at a loss for words. Sometimes the deepest truths resist being captured in language."
)

// character is the card sent with dialogue requests.
type character struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Background string `json:"background"`
}

type dialogueRequest struct {
	Messages       []chat.ChatMessage `json:"messages"`
	Character      character          `json:"character"`
	IncludeEmotion bool               `json:"includeEmotion"`
}

var minerva = character{
	Name:       "Minerva",
	Role:       "Village Mentor",
	Background: "A wise and compassionate mentor who guides others on their path to self-discovery and understanding. Minerva speaks with warmth and clarity, drawing from a deep well of experience and insight.",
}

// mentorTopic is a canned question and the line Minerva opens with.
type mentorTopic struct {
	question string
	bubble   emotion.Bubble
	opener   string
}

var mentorTopics = map[string]mentorTopic{
	"wisdom":     {"What is true wisdom and how can one cultivate it?", emotion.Idea, "Ah, wisdom, the treasure sought by all who value the examined life. Let me share my perspective..."},
	"peace":      {"How can one find inner peace in a chaotic world?", emotion.Cloud, "Inner peace, that elusive state of tranquility amidst life's storms. Allow me to reflect on this..."},
	"challenges": {"What is the best approach to overcoming life's challenges?", emotion.Star, "Life presents us with obstacles that test our resolve and character. Let me share what I've learned..."},
	"continue":   {"Please continue our previous discussion.", emotion.Like, "Yes, let us continue our exploration of these ideas..."},
}

type mentor struct {
	deps Deps
}

func newMentor(deps Deps) *Event {
	m := &mentor{deps: deps}
	return &Event{
		Name:     mentorName,
		Label:    "Mentor",
		Graphic:  "female",
		OnAction: m.onAction,
	}
}

func (m *mentor) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(mentorName, p)
	ps := t.state()
	history := ps.History(VarMentorHistory)

	if len(history) == 0 {
		if err := t.say(ctx, emotion.Happy, mentorGreeting); err != nil {
			return err
		}
		history = append(history, chat.Agent(mentorGreeting))
		if err := ps.SetHistory(VarMentorHistory, history, mentorHistoryLimit); err != nil {
			return err
		}
	}

	picked, err := t.ask(ctx, "What wisdom do you seek today?",
		choice("The meaning of wisdom", "wisdom"),
		choice("Finding inner peace", "peace"),
		choice("Overcoming challenges", "challenges"),
		choice("Ask a custom question", "custom"),
		choice("Continue our discussion", "continue"),
	)
	if err != nil || picked == "" {
		return err
	}

	var question string
	if picked == "custom" {
		q, err := t.input(ctx, "What question would you like to ask?", 0)
		if err != nil {
			return err
		}
		if strings.TrimSpace(q) == "" {
			return t.say(ctx, emotion.Question, "I see you're contemplating in silence. Return when your question has formed in your mind.")
		}
		question = q
		if err := t.say(ctx, emotion.Idea, "A thoughtful inquiry. Let me consider this carefully..."); err != nil {
			return err
		}
	} else {
		topic := mentorTopics[picked]
		question = topic.question
		if err := t.say(ctx, topic.bubble, topic.opener); err != nil {
			return err
		}
	}

	history = append(history, chat.User(question))
	t.emote(ctx, emotion.ThreeDot)

	resp, err := m.deps.Hooks.PostJSON(ctx, m.deps.url(config.WebhookNPCDialogue), dialogueRequest{
		Messages:       history,
		Character:      minerva,
		IncludeEmotion: true,
	}, nil)
	if err != nil {
		m.deps.Logger.Error("Error getting mentor dialogue", "player_id", p.ID(), "error", err)
		return t.say(ctx, emotion.Sad, "Forgive me, but I find my thoughts clouded today. Perhaps we can continue our discussion when clarity returns.")
	}

	reply, bubble := m.reply(resp.Body)
	for i, chunk := range textfilter.SplitFixed(reply, mentorChunkSize) {
		b := emotion.None
		if i%2 == 0 {
			b = bubble
		}
		if err := t.say(ctx, b, chunk); err != nil {
			return err
		}
	}

	history = append(history, chat.Agent(reply))
	if err := ps.SetHistory(VarMentorHistory, history, mentorHistoryLimit); err != nil {
		return err
	}
	return t.say(ctx, emotion.Like, "I hope my guidance has been of value. Return whenever you seek further wisdom on your journey.")
}

// reply reads Minerva's answer. Structured replies carry their own emotion;
// a bare text body is spoken as is.
func (m *mentor) reply(body []byte) (string, emotion.Bubble) {
	if r, ok := webhook.DecodeReply(body); ok {
		b := emotion.Idea
		if r.Emotion != "" {
			b = emotion.Map(r.Emotion)
		}
		return r.Text, b
	}

	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		if doc.Get("message.content").Type == gjson.String {
			m.deps.Logger.Error("Mentor reply content is not a structured reply", "sample", webhook.Sample(body, 200))
			return mentorSpeechless, emotion.Idea
		}
		if doc.IsObject() || doc.IsArray() {
			m.deps.Logger.Error("Unexpected mentor response format", "sample", webhook.Sample(body, 200))
			return mentorUnexpected, emotion.Idea
		}
	}
	return webhook.Text(m.deps.Logger, body), emotion.Idea
}
