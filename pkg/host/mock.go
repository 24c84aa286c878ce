package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// Step is one host interaction recorded by MockPlayer.
type Step struct {
	Kind    string // text, choices, input, notification, gui, emotion
	Text    string
	Speaker string
	Target  string
	Bubble  emotion.Bubble
	GUI     string
	Data    any
	Choices []Choice
}

// MockPlayer is a scripted Player for tests. Choice answers are matched by
// value; an empty answer or an exhausted script dismisses the prompt.
type MockPlayer struct {
	mu sync.Mutex

	PlayerState *state.Player
	Answers     []string // consumed by ShowChoices
	Inputs      []string // consumed by ShowInputBox

	// PromptErr, when set, is returned by every blocking prompt.
	PromptErr error

	Steps []Step
}

var _ Player = (*MockPlayer)(nil)

func NewMockPlayer(name string) *MockPlayer {
	return &MockPlayer{PlayerState: state.NewPlayer(name)}
}

func (m *MockPlayer) ID() string           { return m.PlayerState.ID.String() }
func (m *MockPlayer) Name() string         { return m.PlayerState.Name }
func (m *MockPlayer) State() *state.Player { return m.PlayerState }

func (m *MockPlayer) record(s Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Steps = append(m.Steps, s)
}

func (m *MockPlayer) ShowText(ctx context.Context, text string, opts TextOptions) error {
	m.record(Step{Kind: "text", Text: text, Speaker: opts.Speaker})
	if m.PromptErr != nil {
		return m.PromptErr
	}
	return ctx.Err()
}

func (m *MockPlayer) ShowChoices(ctx context.Context, prompt string, choices []Choice, opts TextOptions) (*Choice, error) {
	m.record(Step{Kind: "choices", Text: prompt, Speaker: opts.Speaker, Choices: choices})
	if m.PromptErr != nil {
		return nil, m.PromptErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Answers) == 0 {
		return nil, nil
	}
	answer := m.Answers[0]
	m.Answers = m.Answers[1:]
	if answer == "" {
		return nil, nil
	}
	c := Pick(choices, answer)
	if c == nil {
		return nil, fmt.Errorf("mock: no choice with value %q in %q", answer, prompt)
	}
	return c, nil
}

func (m *MockPlayer) ShowInputBox(ctx context.Context, prompt string, opts InputOptions) (string, error) {
	m.record(Step{Kind: "input", Text: prompt, Speaker: opts.Speaker})
	if m.PromptErr != nil {
		return "", m.PromptErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Inputs) == 0 {
		return "", nil
	}
	in := m.Inputs[0]
	m.Inputs = m.Inputs[1:]
	if opts.MaxLength > 0 && len([]rune(in)) > opts.MaxLength {
		in = string([]rune(in)[:opts.MaxLength])
	}
	return in, nil
}

func (m *MockPlayer) ShowNotification(_ context.Context, message string) {
	m.record(Step{Kind: "notification", Text: message})
}

func (m *MockPlayer) OpenGUI(_ context.Context, gui string, data any) {
	m.record(Step{Kind: "gui", GUI: gui, Data: data})
}

func (m *MockPlayer) ShowEmotion(_ context.Context, target string, bubble emotion.Bubble) {
	m.record(Step{Kind: "emotion", Target: target, Bubble: bubble})
}

// StepsOf returns the recorded steps of one kind.
func (m *MockPlayer) StepsOf(kind string) []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Step
	for _, s := range m.Steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Texts returns the text of every ShowText call in order.
func (m *MockPlayer) Texts() []string {
	var out []string
	for _, s := range m.StepsOf("text") {
		out = append(out, s.Text)
	}
	return out
}
