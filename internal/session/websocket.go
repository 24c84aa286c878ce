package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ErrPromptTimeout is returned when the player leaves a prompt unanswered
// for longer than the session prompt timeout.
var ErrPromptTimeout = errors.New("prompt timed out")

// WebSocketPlayer is a host.Player speaking the frame protocol over a
// gorilla/websocket connection.
type WebSocketPlayer struct {
	conn    *websocket.Conn
	ps      *state.Player
	logger  *slog.Logger
	timeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Int64
	replies chan Reply

	done      chan struct{}
	closeOnce sync.Once
}

var _ host.Player = (*WebSocketPlayer)(nil)

// NewWebSocketPlayer starts reading replies from conn. promptTimeout bounds
// each blocking prompt; zero waits for as long as the connection lives.
func NewWebSocketPlayer(conn *websocket.Conn, ps *state.Player, promptTimeout time.Duration, logger *slog.Logger) *WebSocketPlayer {
	w := &WebSocketPlayer{
		conn:    conn,
		ps:      ps,
		logger:  logger,
		timeout: promptTimeout,
		replies: make(chan Reply, 16),
		done:    make(chan struct{}),
	}
	go w.readPump()
	go w.keepAlive()
	return w
}

func (w *WebSocketPlayer) ID() string           { return w.ps.ID.String() }
func (w *WebSocketPlayer) Name() string         { return w.ps.Name }
func (w *WebSocketPlayer) State() *state.Player { return w.ps }

// Done is closed once the client has gone away.
func (w *WebSocketPlayer) Done() <-chan struct{} { return w.done }

func (w *WebSocketPlayer) readPump() {
	defer w.markClosed()

	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))

		var r Reply
		if err := json.Unmarshal(msg, &r); err != nil || r.Type != FrameReply {
			w.logger.Debug("ignoring client frame", "frame", string(msg))
			continue
		}
		select {
		case w.replies <- r:
		default:
			w.logger.Warn("reply buffer full, dropping reply", "id", r.ID)
		}
	}
}

func (w *WebSocketPlayer) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (w *WebSocketPlayer) markClosed() {
	w.closeOnce.Do(func() { close(w.done) })
}

func (w *WebSocketPlayer) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *WebSocketPlayer) send(f Frame) error {
	if w.closed() {
		return host.ErrClosed
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteJSON(f); err != nil {
		w.markClosed()
		return fmt.Errorf("%w: %v", host.ErrClosed, err)
	}
	return nil
}

// notify sends a fire-and-forget frame. A dead connection surfaces at the
// next prompt.
func (w *WebSocketPlayer) notify(f Frame) {
	if err := w.send(f); err != nil {
		w.logger.Debug("dropping frame", "type", f.Type, "error", err)
	}
}

func (w *WebSocketPlayer) await(ctx context.Context, f Frame) (Reply, error) {
	f.ID = w.nextID.Add(1)
	if err := w.send(f); err != nil {
		return Reply{}, err
	}

	var timeout <-chan time.Time
	if w.timeout > 0 {
		t := time.NewTimer(w.timeout)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case r := <-w.replies:
			if r.ID != f.ID {
				w.logger.Debug("stale reply", "id", r.ID, "want", f.ID)
				continue
			}
			return r, nil
		case <-w.done:
			return Reply{}, host.ErrClosed
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case <-timeout:
			return Reply{}, ErrPromptTimeout
		}
	}
}

func (w *WebSocketPlayer) ShowText(ctx context.Context, text string, opts host.TextOptions) error {
	f := Frame{
		Type:     FrameText,
		Text:     text,
		Speaker:  opts.Speaker,
		AutoNext: opts.AutoNext,
		TimeMS:   opts.Time.Milliseconds(),
	}
	if opts.AutoNext {
		return w.send(f)
	}
	_, err := w.await(ctx, f)
	return err
}

func (w *WebSocketPlayer) ShowChoices(ctx context.Context, prompt string, choices []host.Choice, opts host.TextOptions) (*host.Choice, error) {
	r, err := w.await(ctx, Frame{
		Type:    FrameChoices,
		Text:    prompt,
		Speaker: opts.Speaker,
		Choices: choices,
	})
	if err != nil {
		return nil, err
	}
	if r.Value == "" {
		return nil, nil
	}
	c := host.Pick(choices, r.Value)
	if c == nil {
		w.logger.Warn("reply does not match any choice, treating as dismissed", "value", r.Value)
	}
	return c, nil
}

func (w *WebSocketPlayer) ShowInputBox(ctx context.Context, prompt string, opts host.InputOptions) (string, error) {
	r, err := w.await(ctx, Frame{
		Type:      FrameInput,
		Text:      prompt,
		Speaker:   opts.Speaker,
		MaxLength: opts.MaxLength,
	})
	if err != nil {
		return "", err
	}
	in := []rune(r.Value)
	if opts.MaxLength > 0 && len(in) > opts.MaxLength {
		in = in[:opts.MaxLength]
	}
	return string(in), nil
}

func (w *WebSocketPlayer) ShowNotification(_ context.Context, message string) {
	w.notify(Frame{Type: FrameNotification, Text: message})
}

func (w *WebSocketPlayer) OpenGUI(_ context.Context, gui string, data any) {
	w.notify(Frame{Type: FrameGUI, GUI: gui, Data: data})
}

func (w *WebSocketPlayer) ShowEmotion(_ context.Context, target string, bubble emotion.Bubble) {
	w.notify(Frame{Type: FrameEmotion, Target: target, Bubble: bubble})
}

// ShowIndicator sets or, with emotion.None, clears the bubble an NPC keeps
// showing between conversations.
func (w *WebSocketPlayer) ShowIndicator(_ context.Context, npc string, bubble emotion.Bubble) {
	w.notify(Frame{Type: FrameIndicator, Target: npc, Bubble: bubble})
}

// Finish reports the outcome of the session and closes the connection.
func (w *WebSocketPlayer) Finish(runErr error) {
	if runErr != nil {
		w.notify(Frame{Type: FrameError, Error: runErr.Error()})
	} else {
		w.notify(Frame{Type: FrameEnd, Player: w.ps})
	}

	w.writeMu.Lock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	w.writeMu.Unlock()

	w.markClosed()
	_ = w.conn.Close()
}
