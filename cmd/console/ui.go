package main

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "Type your answer here..."

// menuEntry is one thing the player can start a session with.
type menuEntry struct {
	label  string
	target session.Target
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	client *http.Client
	player *state.Player

	npcs      []npc.Event
	itemNames map[string]string
	selected  int

	conn       frameConn
	prompt     *session.Frame
	choice     int
	input      textinput.Model
	indicators map[string]emotion.Bubble

	lines        []string
	chatViewport viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// copyURL is swapped out in tests.
	copyURL func(string) error
}

type catalogLoadedMsg struct {
	npcs  []npc.Event
	items []items.Item
	err   error
}

type playerMsg struct {
	player *state.Player
	err    error
}

type sessionOpenedMsg struct {
	conn frameConn
	err  error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	notificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var bubbleGlyphs = map[emotion.Bubble]string{
	emotion.Confusion:   "?!",
	emotion.Question:    "?",
	emotion.Idea:        "💡",
	emotion.Like:        "♥",
	emotion.Surprise:    "!?",
	emotion.Sad:         "💧",
	emotion.Happy:       "♪",
	emotion.Exclamation: "!",
	emotion.ThreeDot:    "...",
	emotion.Star:        "★",
	emotion.Cloud:       "☁",
}

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, player *state.Player) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = PlaceHolderText
	ti.Prompt = promptStyle.Render(":: ")
	ti.CharLimit = 500
	ti.Width = 50

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		player:       player,
		itemNames:    make(map[string]string),
		indicators:   make(map[string]emotion.Bubble),
		input:        ti,
		chatViewport: chatVp,
		metaViewport: metaVp,
		loading:      true,
		copyURL:      clipboard.WriteAll,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadCatalog()
}

func (m ConsoleUI) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		events, err := listNPCs(m.client, m.config.APIBaseURL)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		list, err := listItems(m.client, m.config.APIBaseURL)
		return catalogLoadedMsg{npcs: events, items: list, err: err}
	}
}

func (m ConsoleUI) refreshPlayer() tea.Cmd {
	return func() tea.Msg {
		p, err := getPlayer(m.client, m.config.APIBaseURL, m.player.ID)
		return playerMsg{p, err}
	}
}

func (m ConsoleUI) startSession(target session.Target) tea.Cmd {
	return func() tea.Msg {
		conn, err := openSession(m.config.APIBaseURL, m.player.ID, target)
		return sessionOpenedMsg{conn, err}
	}
}

// menu lists every NPC followed by the items the player holds.
func (m ConsoleUI) menu() []menuEntry {
	var out []menuEntry
	for _, e := range m.npcs {
		label := "Talk to " + e.Label
		if b := m.indicators[e.Name]; b != emotion.None {
			label += " " + bubbleGlyphs[b]
		}
		out = append(out, menuEntry{label: label, target: session.Target{Event: e.Name}})
	}
	for _, id := range m.player.ItemIDs() {
		name := m.itemNames[id]
		if name == "" {
			name = id
		}
		out = append(out, menuEntry{
			label:  fmt.Sprintf("Use %s (x%d)", name, m.player.ItemCount(id)),
			target: session.Target{Item: id},
		})
	}
	return out
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 12
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.input.Width = chatWidth - 8
}

func (m *ConsoleUI) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.writeChatContent()
}

// writeChatContent rewraps the whole log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ARTEL VILLAGE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, line := range m.lines {
		content.WriteString(wordwrap.String(line, width) + "\n\n")
	}
	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func writeMetadata(p *state.Player, itemNames map[string]string, indicators map[string]emotion.Bubble) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PLAYER") + "\n\n")

	content.WriteString("Name:\n" + p.Name + "\n\n")
	content.WriteString("ID:\n" + p.ID.String()[:8] + "...\n\n")
	content.WriteString(fmt.Sprintf("Gold: %d\n", p.Gold))
	content.WriteString(fmt.Sprintf("HP: %d/%d\n\n", p.HP, p.MaxHP))

	if len(p.States) > 0 {
		content.WriteString("States:\n" + strings.Join(p.States, ", ") + "\n\n")
	}

	content.WriteString("Inventory:\n")
	ids := p.ItemIDs()
	if len(ids) == 0 {
		content.WriteString("Empty\n")
	}
	for _, id := range ids {
		name := itemNames[id]
		if name == "" {
			name = id
		}
		content.WriteString(fmt.Sprintf("• %s x%d\n", name, p.ItemCount(id)))
	}

	if len(indicators) > 0 {
		content.WriteString("\nWaiting for you:\n")
		for _, line := range sortedIndicators(indicators) {
			content.WriteString("• " + line + "\n")
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• ↑/↓: Select\n")
	content.WriteString("• Enter: Confirm\n")
	content.WriteString("• Esc: Dismiss / Quit\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.player, m.itemNames, m.indicators))

	case catalogLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.npcs = msg.npcs
		for _, it := range msg.items {
			m.itemNames[it.ID] = it.Name
		}
		m.metaViewport.SetContent(writeMetadata(m.player, m.itemNames, m.indicators))

	case playerMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.player = msg.player
		m.clampSelection()
		m.metaViewport.SetContent(writeMetadata(m.player, m.itemNames, m.indicators))

	case sessionOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		m.conn = msg.conn
		return m, readFrame(m.conn)

	case frameMsg:
		return m.handleFrame(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ConsoleUI) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if m.conn == nil {
		return m, nil
	}
	if msg.err != nil {
		m.appendLine(errorStyle.Render("Connection lost: " + msg.err.Error()))
		m.endSession()
		return m, m.refreshPlayer()
	}

	f := msg.frame
	next := readFrame(m.conn)

	switch f.Type {
	case session.FrameText:
		m.appendLine(formatSpeech(f.Speaker, f.Text))
		if !f.AutoNext {
			m.setPrompt(f)
		}

	case session.FrameChoices:
		if f.Text != "" {
			m.appendLine(formatSpeech(f.Speaker, f.Text))
		}
		m.setPrompt(f)

	case session.FrameInput:
		m.appendLine(formatSpeech(f.Speaker, f.Text))
		m.setPrompt(f)
		if f.MaxLength > 0 {
			m.input.CharLimit = f.MaxLength
		}
		m.input.Reset()
		return m, tea.Batch(next, m.input.Focus())

	case session.FrameNotification:
		m.appendLine(notificationStyle.Render("» " + f.Text))

	case session.FrameGUI:
		m.appendLine(m.openGUI(f))

	case session.FrameEmotion:
		if glyph, ok := bubbleGlyphs[f.Bubble]; ok {
			m.appendLine(promptStyle.Render(fmt.Sprintf("(%s %s)", f.Target, glyph)))
		}

	case session.FrameIndicator:
		if f.Bubble == emotion.None {
			delete(m.indicators, f.Target)
		} else {
			m.indicators[f.Target] = f.Bubble
		}
		m.metaViewport.SetContent(writeMetadata(m.player, m.itemNames, m.indicators))

	case session.FrameEnd:
		if f.Player != nil {
			m.player = f.Player
			m.metaViewport.SetContent(writeMetadata(m.player, m.itemNames, m.indicators))
		}
		m.appendLine(promptStyle.Render("~ end of conversation ~"))
		m.endSession()
		m.clampSelection()
		return m, nil

	case session.FrameError:
		m.appendLine(errorStyle.Render("Error: " + f.Error))
		m.endSession()
		return m, m.refreshPlayer()
	}

	return m, next
}

func (m *ConsoleUI) setPrompt(f session.Frame) {
	m.prompt = &f
	m.choice = 0
}

func (m *ConsoleUI) endSession() {
	if m.conn != nil {
		_ = m.conn.Close()
	}
	m.conn = nil
	m.prompt = nil
	m.input.Blur()
}

func (m *ConsoleUI) clampSelection() {
	if n := len(m.menu()); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

// openGUI renders a viewer as a log line and copies its image URL.
func (m *ConsoleUI) openGUI(f session.Frame) string {
	data, _ := f.Data.(map[string]any)
	url, _ := data["url"].(string)
	title, _ := data["title"].(string)
	if title == "" {
		title = f.GUI
	}
	if url == "" {
		return notificationStyle.Render("[" + title + "]")
	}

	line := notificationStyle.Render(fmt.Sprintf("[%s] %s", title, url))
	if err := m.copyURL(url); err != nil {
		m.status = "Could not copy URL: " + err.Error()
	} else {
		m.status = "Image URL copied to clipboard"
	}
	return line
}

func formatSpeech(speaker, text string) string {
	if speaker == "" {
		return npcStyle.Render(text)
	}
	return speakerStyle.Render(speaker+": ") + text
}

func (m ConsoleUI) reply(value string) (tea.Model, tea.Cmd) {
	id := m.prompt.ID
	m.prompt = nil
	m.input.Blur()
	if err := m.conn.WriteJSON(session.Reply{Type: session.FrameReply, ID: id, Value: value}); err != nil {
		m.appendLine(errorStyle.Render("Error: " + err.Error()))
		m.endSession()
		return m, m.refreshPlayer()
	}
	return m, nil
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.showQuitModal = true
		return m, nil
	}

	if m.conn == nil {
		return m.handleMenuKey(msg)
	}
	if m.prompt == nil {
		return m, nil
	}

	switch m.prompt.Type {
	case session.FrameText:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace {
			return m.reply("")
		}

	case session.FrameChoices:
		switch msg.Type {
		case tea.KeyUp:
			if m.choice > 0 {
				m.choice--
			}
		case tea.KeyDown:
			if m.choice < len(m.prompt.Choices)-1 {
				m.choice++
			}
		case tea.KeyEnter:
			if len(m.prompt.Choices) == 0 {
				return m.reply("")
			}
			c := m.prompt.Choices[m.choice]
			m.appendLine(notificationStyle.Render("You: ") + c.Text)
			return m.reply(c.Value)
		case tea.KeyEsc:
			return m.reply("")
		}

	case session.FrameInput:
		switch msg.Type {
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			if value != "" {
				m.appendLine(notificationStyle.Render("You: ") + value)
			}
			m.input.Reset()
			return m.reply(value)
		case tea.KeyEsc:
			m.input.Reset()
			return m.reply("")
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ConsoleUI) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.menu()

	switch msg.Type {
	case tea.KeyEsc:
		m.showQuitModal = true
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(entries)-1 {
			m.selected++
		}
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd
	case tea.KeyEnter:
		if m.loading || m.err != nil || len(entries) == 0 {
			return m, nil
		}
		entry := entries[m.selected]
		m.loading = true
		m.status = ""
		m.appendLine(separatorStyle.Render(strings.Repeat("─", 10)) + " " + titleStyle.Render(entry.label))
		return m, m.startSession(entry.target)
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			if m.conn != nil {
				_ = m.conn.Close()
			}
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				if m.conn != nil {
					_ = m.conn.Close()
				}
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				if m.prompt != nil && m.prompt.Type == session.FrameInput {
					return m, m.input.Focus()
				}
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Village?"))
	content.WriteString("\n\n")
	content.WriteString("Any conversation in progress will end.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// renderControls draws whatever the player can act on below the log.
func (m ConsoleUI) renderControls() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.loading:
		b.WriteString(loadingStyle.Render("Loading..."))
	case m.conn == nil:
		entries := m.menu()
		b.WriteString(promptStyle.Render("Where to?") + "\n")
		b.WriteString(renderList(labels(entries), m.selected, 6))
	case m.prompt == nil:
		b.WriteString(loadingStyle.Render("..."))
	case m.prompt.Type == session.FrameText:
		b.WriteString(promptStyle.Render("Press Enter to continue"))
	case m.prompt.Type == session.FrameChoices:
		var texts []string
		for _, c := range m.prompt.Choices {
			texts = append(texts, c.Text)
		}
		b.WriteString(renderList(texts, m.choice, 6))
		b.WriteString("\n" + promptStyle.Render("Enter to choose, Esc to walk away"))
	case m.prompt.Type == session.FrameInput:
		b.WriteString(m.input.View())
	}

	if m.status != "" {
		b.WriteString("\n" + promptStyle.Render(m.status))
	}
	return b.String()
}

func labels(entries []menuEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.label)
	}
	return out
}

// renderList shows up to window entries around selected.
func renderList(entries []string, selected, window int) string {
	start := 0
	if selected >= window {
		start = selected - window + 1
	}
	end := min(start+window, len(entries))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == selected {
			b.WriteString(selectedItemStyle.Render("▶ " + entries[i]))
		} else {
			b.WriteString(itemStyle.Render("  " + entries[i]))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 0))),
			m.renderControls(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

func sortedIndicators(ind map[string]emotion.Bubble) []string {
	out := make([]string, 0, len(ind))
	for name, b := range ind {
		out = append(out, name+" "+bubbleGlyphs[b])
	}
	slices.Sort(out)
	return out
}
