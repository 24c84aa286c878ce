package main

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records replies; reads are driven by the test through frameMsg.
type fakeConn struct {
	mu      sync.Mutex
	replies []session.Reply
	closed  bool
}

func (c *fakeConn) ReadJSON(any) error { return io.EOF }

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.replies = append(c.replies, v.(session.Reply))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func newTestUI(t *testing.T) (ConsoleUI, *fakeConn, *[]string) {
	t.Helper()
	player := state.NewPlayer("Mira")
	m := NewConsoleUI(&ConsoleConfig{APIBaseURL: "http://localhost:0"}, nil, player)

	var copied []string
	m.copyURL = func(u string) error {
		copied = append(copied, u)
		return nil
	}

	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(catalogLoadedMsg{npcs: []npc.Event{
		{Name: "village-mentor", Label: "Mentor"},
		{Name: "village-shopkeeper", Label: "Shop"},
	}})

	conn := &fakeConn{}
	model, cmd := model.Update(sessionOpenedMsg{conn: conn})
	require.NotNil(t, cmd)
	return model.(ConsoleUI), conn, &copied
}

func send(t *testing.T, m ConsoleUI, msgs ...tea.Msg) ConsoleUI {
	t.Helper()
	var model tea.Model = m
	for _, msg := range msgs {
		model, _ = model.Update(msg)
	}
	return model.(ConsoleUI)
}

func frame(f session.Frame) frameMsg { return frameMsg{frame: f} }

func TestConsoleUI_TextPrompt(t *testing.T) {
	m, conn, _ := newTestUI(t)

	m = send(t, m,
		frame(session.Frame{Type: session.FrameText, ID: 1, Speaker: "Mentor", Text: "Welcome."}),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	require.Len(t, conn.replies, 1)
	assert.Equal(t, session.Reply{Type: session.FrameReply, ID: 1}, conn.replies[0])
	assert.Nil(t, m.prompt)
	assert.Contains(t, m.lines[len(m.lines)-1], "Welcome.")
}

func TestConsoleUI_AutoNextNeedsNoReply(t *testing.T) {
	m, conn, _ := newTestUI(t)

	m = send(t, m,
		frame(session.Frame{Type: session.FrameText, Text: "Hmm...", AutoNext: true}),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	assert.Empty(t, conn.replies)
	assert.Nil(t, m.prompt)
}

func TestConsoleUI_Choices(t *testing.T) {
	choices := []host.Choice{{Text: "Buy", Value: "buy"}, {Text: "Leave", Value: "leave"}}

	t.Run("pick", func(t *testing.T) {
		m, conn, _ := newTestUI(t)
		send(t, m,
			frame(session.Frame{Type: session.FrameChoices, ID: 4, Text: "What now?", Choices: choices}),
			tea.KeyMsg{Type: tea.KeyDown},
			tea.KeyMsg{Type: tea.KeyDown},
			tea.KeyMsg{Type: tea.KeyEnter},
		)
		require.Len(t, conn.replies, 1)
		assert.Equal(t, "leave", conn.replies[0].Value)
		assert.Equal(t, int64(4), conn.replies[0].ID)
	})

	t.Run("dismiss", func(t *testing.T) {
		m, conn, _ := newTestUI(t)
		send(t, m,
			frame(session.Frame{Type: session.FrameChoices, ID: 5, Choices: choices}),
			tea.KeyMsg{Type: tea.KeyEsc},
		)
		require.Len(t, conn.replies, 1)
		assert.Equal(t, "", conn.replies[0].Value)
	})
}

func TestConsoleUI_Input(t *testing.T) {
	m, conn, _ := newTestUI(t)

	m = send(t, m, frame(session.Frame{Type: session.FrameInput, ID: 9, Text: "Your dream?", MaxLength: 5}))
	for _, r := range "flying" {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, conn.replies, 1)
	assert.Equal(t, "flyin", conn.replies[0].Value)
}

func TestConsoleUI_GUICopiesURL(t *testing.T) {
	m, _, copied := newTestUI(t)

	m = send(t, m, frame(session.Frame{
		Type: session.FrameGUI,
		GUI:  host.GUIImageViewer,
		Data: map[string]any{"url": "https://example.com/p.png", "title": "Your Portrait"},
	}))

	assert.Equal(t, []string{"https://example.com/p.png"}, *copied)
	assert.Contains(t, m.lines[len(m.lines)-1], "Your Portrait")
	assert.Equal(t, "Image URL copied to clipboard", m.status)
}

func TestConsoleUI_EndAndIndicators(t *testing.T) {
	m, conn, _ := newTestUI(t)

	updated := state.NewPlayer("Mira")
	updated.ID = m.player.ID
	updated.Gold = 42
	updated.AddItem("healing-potion", 2)

	m = send(t, m,
		frame(session.Frame{Type: session.FrameIndicator, Target: "village-mentor", Bubble: emotion.Exclamation}),
		frame(session.Frame{Type: session.FrameEnd, Player: updated}),
	)

	assert.True(t, conn.closed)
	assert.Nil(t, m.conn)
	assert.Equal(t, 42, m.player.Gold)

	entries := labels(m.menu())
	require.Len(t, entries, 3)
	assert.Equal(t, "Talk to Mentor !", entries[0])
	assert.True(t, strings.HasPrefix(entries[2], "Use healing-potion (x2)"))

	// frames after the session closed are ignored
	m = send(t, m, frame(session.Frame{Type: session.FrameIndicator, Target: "village-mentor"}))
	assert.Len(t, m.indicators, 1)

	m = send(t, m,
		sessionOpenedMsg{conn: &fakeConn{}},
		frame(session.Frame{Type: session.FrameIndicator, Target: "village-mentor"}),
	)
	assert.Empty(t, m.indicators)
}

func TestRenderList_Window(t *testing.T) {
	entries := []string{"a", "b", "c", "d", "e"}
	out := renderList(entries, 4, 3)
	assert.NotContains(t, out, "  a")
	assert.Contains(t, out, "▶ e")
}
