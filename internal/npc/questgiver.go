package npc

import (
	"context"
	"fmt"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/textfilter"
	"github.com/jwebster45206/artel-village/pkg/webhook"
)

const (
	questGiverName = "village-quest-giver"

	VarQuestGiverHistory = "QUEST_GIVER_HISTORY"

	questGiverHistoryLimit = 20
	// questTimeout bounds the quest webhook; Eldric is the only NPC that
	// gives up on a slow answer.
	questTimeout = 10 * time.Second

	questGreeting    = "Greetings, adventurer! I am Eldric, the Quest Master of this realm. I have many tasks that need a brave soul like yourself."
	questUnavailable = "I'm sorry, I couldn't generate a quest right now. Please try again later."
	questTarget      = 100
)

var questPrompts = map[string]string{
	"combat":      "Give me a combat quest that involves defeating enemies",
	"exploration": "Give me an exploration quest that involves discovering new areas",
	"collection":  "Give me a collection quest that involves gathering items",
	"mystery":     "Give me a mystery quest that involves solving puzzles or uncovering secrets",
	"lore":        "Tell me about the history and lore of this realm",
}

type questRequest struct {
	Messages   []chat.ChatMessage `json:"messages"`
	QuestType  string             `json:"questType"`
	Prompt     string             `json:"prompt"`
	PlayerName string             `json:"playerName"`
	Format     string             `json:"format"`
}

type questGiver struct {
	deps Deps
}

func newQuestGiver(deps Deps) *Event {
	q := &questGiver{deps: deps}
	return &Event{
		Name:      questGiverName,
		Label:     "Quest Master",
		Graphic:   "female",
		OnAction:  q.onAction,
		Indicator: questIndicator,
	}
}

func questIndicator(ps *state.Player) (emotion.Bubble, bool) {
	if ps.HasVariable(items.VarActiveQuest) {
		return emotion.Exclamation, true
	}
	return emotion.None, false
}

func (q *questGiver) onAction(ctx context.Context, p host.Player) error {
	t := newTalk(questGiverName, p)
	ps := t.state()

	if ps.BoolVar(items.VarQuestCompleted) {
		return q.complete(ctx, t)
	}
	if ps.HasVariable(items.VarActiveQuest) {
		return q.progress(ctx, t)
	}

	history := ps.History(VarQuestGiverHistory)
	if len(history) == 0 {
		if err := t.say(ctx, emotion.Happy, questGreeting); err != nil {
			return err
		}
		history = append(history, chat.Agent(questGreeting))
		if err := ps.SetHistory(VarQuestGiverHistory, history, questGiverHistoryLimit); err != nil {
			return err
		}
	} else if err := t.say(ctx, emotion.Happy, "Welcome back, adventurer! Ready for a new challenge?"); err != nil {
		return err
	}

	kind, err := t.ask(ctx, "What kind of quest interests you?",
		choice("Combat Quest", "combat"),
		choice("Exploration Quest", "exploration"),
		choice("Collection Quest", "collection"),
		choice("Mystery Quest", "mystery"),
		choice("Ask about the realm", "lore"),
	)
	if err != nil || kind == "" {
		return err
	}

	if err := t.say(ctx, emotion.ThreeDot, "Let me think of a suitable quest for you..."); err != nil {
		return err
	}

	prompt := questPrompts[kind]
	history = append(history, chat.User(prompt))

	quest, err := q.request(ctx, questRequest{
		Messages:   history,
		QuestType:  kind,
		Prompt:     prompt,
		PlayerName: orDefault(p.Name(), "Adventurer"),
		Format:     "json",
	})
	if err != nil {
		q.deps.Logger.Error("Error with quest generation", "player_id", p.ID(), "quest_type", kind, "error", err)
		return t.say(ctx, emotion.Sad, "I apologize, but I seem to be having trouble recalling the details of that quest. Perhaps we can try again later?")
	}
	q.fillDefaults(&quest, kind)
	q.deps.Logger.Debug("Quest generated", "player_id", p.ID(), "title", quest.Title, "reward", quest.Reward, "target", quest.Target)

	history = append(history, chat.Agent(quest.Content))
	if err := ps.SetHistory(VarQuestGiverHistory, history, questGiverHistoryLimit); err != nil {
		return err
	}

	bubble := emotion.Sad
	if quest.Emotion != "" {
		bubble = emotion.Map(quest.Emotion)
	}
	if err := t.say(ctx, bubble, quest.Content); err != nil {
		return err
	}
	if kind == "lore" {
		return nil
	}

	theme := "A beautiful artwork of " + quest.Title
	if kind == "collection" {
		theme = quest.Content
	}
	for k, v := range map[string]string{
		items.VarQuestTitle:       quest.Title,
		items.VarQuestDescription: quest.Content,
		items.VarQuestTheme:       theme,
		items.VarQuestReward:      quest.Reward,
		items.VarActiveQuest:      quest.Title,
	} {
		if err := ps.SetVariable(k, v); err != nil {
			return err
		}
	}
	ps.AddItem(items.QuestScroll, 1)

	if err := t.say(ctx, emotion.Star, fmt.Sprintf("Quest accepted: %s. Take this scroll to the Artist to commission a painting!", quest.Title)); err != nil {
		return err
	}
	t.notify(ctx, "New Quest: "+quest.Title)
	return nil
}

func (q *questGiver) request(ctx context.Context, req questRequest) (webhook.Quest, error) {
	ctx, cancel := context.WithTimeout(ctx, questTimeout)
	defer cancel()

	resp, err := q.deps.Hooks.PostJSON(ctx, q.deps.url(config.WebhookQuestGiver), req, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return webhook.Quest{}, err
	}

	quest, ok := webhook.DecodeQuest(resp.Body)
	if !ok {
		q.deps.Logger.Warn("Quest response carried no quest", "sample", webhook.Sample(resp.Body, 200))
	}
	return quest, nil
}

func (q *questGiver) fillDefaults(quest *webhook.Quest, kind string) {
	if quest.Content == "" {
		quest.Content = questUnavailable
	}
	if quest.Title == "" {
		quest.Title = textfilter.TitleWord(kind) + " Quest"
	}
	if quest.Reward == "" {
		quest.Reward = items.DefaultQuestReward
	}
	if quest.Target == 0 {
		quest.Target = questTarget
	}
}

func (q *questGiver) progress(ctx context.Context, t *talk) error {
	if !t.state().HasItem(items.QuestScroll) {
		return t.say(ctx, emotion.Idea, "Don't forget to take the Quest Scroll to the Artist to commission a painting!")
	}
	return t.say(ctx, emotion.Idea, "I see you have the Quest Scroll. Take it to the Artist to commission a painting!")
}

func (q *questGiver) complete(ctx context.Context, t *talk) error {
	ps := t.state()
	if err := t.say(ctx, emotion.Happy, "Congratulations on completing your quest! The painting looks beautiful."); err != nil {
		return err
	}

	gold := items.RewardGold(ps.StringVar(items.VarQuestReward))
	ps.AddGold(gold)
	t.notify(ctx, fmt.Sprintf("Received: %d gold", gold))

	ps.DeleteVariable(items.VarQuestCompleted)
	ps.DeleteVariable(items.VarActiveQuest)

	return t.say(ctx, emotion.Idea, "I have more quests available if you're interested. Just speak to me again when you're ready for a new challenge!")
}
