package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEvents registers a small script that exercises every prompt kind.
func testEvents() *npc.Registry {
	r := npc.NewRegistry()
	r.Register(&npc.Event{
		Name: "well",
		OnAction: func(ctx context.Context, p host.Player) error {
			p.ShowEmotion(ctx, "well", emotion.Idea)
			if err := p.ShowText(ctx, "The well gurgles.", host.TextOptions{Speaker: "Well"}); err != nil {
				return err
			}
			c, err := p.ShowChoices(ctx, "Toss a coin?", []host.Choice{{Text: "Yes", Value: "yes"}, {Text: "No", Value: "no"}}, host.TextOptions{})
			if err != nil {
				return err
			}
			if c == nil || c.Value != "yes" {
				return nil
			}
			if err := p.State().SpendGold(1); err != nil {
				return err
			}
			wish, err := p.ShowInputBox(ctx, "Make a wish", host.InputOptions{MaxLength: 5})
			if err != nil {
				return err
			}
			p.ShowNotification(ctx, "Wished: "+wish)
			return p.State().SetVariable("WISH", wish)
		},
		Indicator: func(ps *state.Player) (emotion.Bubble, bool) {
			return emotion.Star, ps.HasVariable("WISH")
		},
	})
	return r
}

func testItems() *items.Registry {
	r := items.NewRegistry()
	r.Register(&items.Item{ID: "tonic", Name: "Tonic", Consumable: true, HPValue: 20})
	return r
}

func newTestManager(t *testing.T) (*Manager, storage.Storage, *state.Player) {
	t.Helper()
	store := storage.NewMemoryStorage()
	ps := state.NewPlayer("Mira")
	require.NoError(t, store.SavePlayer(context.Background(), ps))
	return NewManager(store, testEvents(), testItems(), testLogger()), store, ps
}

func TestManager_Check(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		name   string
		target Target
		err    error
	}{
		{"event", Target{Event: "well"}, nil},
		{"item", Target{Item: "tonic"}, nil},
		{"neither", Target{}, ErrNoTarget},
		{"both", Target{Event: "well", Item: "tonic"}, ErrNoTarget},
		{"unknown event", Target{Event: "tower"}, ErrUnknownTarget},
		{"unknown item", Target{Item: "sword"}, ErrUnknownTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Check(tt.target)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestManager_Open(t *testing.T) {
	m, _, ps := newTestManager(t)
	ctx := context.Background()

	lease, err := m.Open(ctx, ps.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mira", lease.Player().Name)

	_, err = m.Open(ctx, ps.ID)
	assert.ErrorIs(t, err, ErrBusy)

	lease.Release()
	lease.Release()

	again, err := m.Open(ctx, ps.ID)
	require.NoError(t, err)
	again.Release()

	_, err = m.Open(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	// a missing player must not stay locked
	_, err = m.Open(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestManager_RunItem(t *testing.T) {
	m, store, ps := newTestManager(t)
	ctx := context.Background()

	ps.HP = 50
	ps.AddItem("tonic", 1)
	require.NoError(t, store.SavePlayer(ctx, ps))

	lease, err := m.Open(ctx, ps.ID)
	require.NoError(t, err)
	defer lease.Release()

	p := &host.MockPlayer{PlayerState: lease.Player()}
	require.NoError(t, m.Run(ctx, lease, p, Target{Item: "tonic"}))

	saved, err := store.LoadPlayer(ctx, ps.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, saved.HP)
	assert.False(t, saved.HasItem("tonic"))
}

func TestManager_RunSavesOnFailure(t *testing.T) {
	m, store, ps := newTestManager(t)
	ctx := context.Background()

	lease, err := m.Open(ctx, ps.ID)
	require.NoError(t, err)
	defer lease.Release()

	// spend the gold, then fail on the input prompt
	lease.Player().Gold = 3
	p := &host.MockPlayer{PlayerState: lease.Player(), Answers: []string{"yes"}}
	failing := &failAfter{MockPlayer: p, inputErr: host.ErrClosed}

	err = m.Run(ctx, lease, failing, Target{Event: "well"})
	require.Error(t, err)
	assert.ErrorIs(t, err, host.ErrClosed)

	saved, err := store.LoadPlayer(ctx, ps.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Gold)
}

// failAfter fails input prompts only.
type failAfter struct {
	*host.MockPlayer
	inputErr error
}

func (f *failAfter) ShowInputBox(context.Context, string, host.InputOptions) (string, error) {
	return "", f.inputErr
}

func TestManager_RunUnownedItem(t *testing.T) {
	m, _, ps := newTestManager(t)
	ctx := context.Background()

	lease, err := m.Open(ctx, ps.ID)
	require.NoError(t, err)
	defer lease.Release()

	err = m.Run(ctx, lease, &host.MockPlayer{PlayerState: lease.Player()}, Target{Item: "tonic"})
	assert.ErrorIs(t, err, state.ErrItemNotOwned)
}

// wsServer plays target for the player named in the "player" query value.
func wsServer(t *testing.T, m *Manager, target Target, promptTimeout time.Duration, result chan<- error) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("player"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lease, err := m.Open(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		defer lease.Release()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p := NewWebSocketPlayer(conn, lease.Player(), promptTimeout, testLogger())
		runErr := m.Run(context.Background(), lease, p, target)
		p.Finish(runErr)
		result <- runErr
	}))
}

func dial(t *testing.T, srv *httptest.Server, playerID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?player=" + playerID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocket_FullConversation(t *testing.T) {
	m, store, ps := newTestManager(t)
	result := make(chan error, 1)
	srv := wsServer(t, m, Target{Event: "well"}, time.Minute, result)
	defer srv.Close()

	conn := dial(t, srv, ps.ID)
	defer conn.Close()

	f := readFrame(t, conn)
	assert.Equal(t, FrameEmotion, f.Type)
	assert.Equal(t, emotion.Idea, f.Bubble)

	f = readFrame(t, conn)
	require.Equal(t, FrameText, f.Type)
	assert.Equal(t, "Well", f.Speaker)
	require.NotZero(t, f.ID)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID}))

	f = readFrame(t, conn)
	require.Equal(t, FrameChoices, f.Type)
	assert.Len(t, f.Choices, 2)
	// a stale reply is ignored
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID - 1, Value: "no"}))
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID, Value: "yes"}))

	f = readFrame(t, conn)
	require.Equal(t, FrameInput, f.Type)
	assert.Equal(t, 5, f.MaxLength)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID, Value: "a warm hearth"}))

	f = readFrame(t, conn)
	assert.Equal(t, FrameNotification, f.Type)
	assert.Equal(t, "Wished: a war", f.Text)

	f = readFrame(t, conn)
	assert.Equal(t, FrameIndicator, f.Type)
	assert.Equal(t, "well", f.Target)
	assert.Equal(t, emotion.Star, f.Bubble)

	f = readFrame(t, conn)
	require.Equal(t, FrameEnd, f.Type)
	require.NotNil(t, f.Player)
	assert.Equal(t, 9, f.Player.Gold)

	require.NoError(t, <-result)

	saved, err := store.LoadPlayer(context.Background(), ps.ID)
	require.NoError(t, err)
	assert.Equal(t, "a war", saved.StringVar("WISH"))
}

func TestWebSocket_DismissedChoice(t *testing.T) {
	m, _, ps := newTestManager(t)
	result := make(chan error, 1)
	srv := wsServer(t, m, Target{Event: "well"}, time.Minute, result)
	defer srv.Close()

	conn := dial(t, srv, ps.ID)
	defer conn.Close()

	readFrame(t, conn) // emotion
	f := readFrame(t, conn)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID}))
	f = readFrame(t, conn)
	require.Equal(t, FrameChoices, f.Type)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID}))

	f = readFrame(t, conn)
	assert.Equal(t, FrameIndicator, f.Type)
	assert.Equal(t, emotion.None, f.Bubble)
	assert.Equal(t, FrameEnd, readFrame(t, conn).Type)
	assert.NoError(t, <-result)
}

func TestWebSocket_DisconnectSavesState(t *testing.T) {
	m, store, ps := newTestManager(t)
	result := make(chan error, 1)
	srv := wsServer(t, m, Target{Event: "well"}, time.Minute, result)
	defer srv.Close()

	conn := dial(t, srv, ps.ID)
	readFrame(t, conn) // emotion
	f := readFrame(t, conn)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID}))
	f = readFrame(t, conn)
	require.NoError(t, conn.WriteJSON(Reply{Type: FrameReply, ID: f.ID, Value: "yes"}))
	f = readFrame(t, conn)
	require.Equal(t, FrameInput, f.Type)
	require.NoError(t, conn.Close())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, host.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not notice the disconnect")
	}

	saved, err := store.LoadPlayer(context.Background(), ps.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, saved.Gold)

	// the lock is released once the handler returns
	require.Eventually(t, func() bool {
		l, err := m.Open(context.Background(), ps.ID)
		if err != nil {
			return false
		}
		l.Release()
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_PromptTimeout(t *testing.T) {
	m, _, ps := newTestManager(t)
	result := make(chan error, 1)
	srv := wsServer(t, m, Target{Event: "well"}, 50*time.Millisecond, result)
	defer srv.Close()

	conn := dial(t, srv, ps.ID)
	defer conn.Close()

	readFrame(t, conn) // emotion
	readFrame(t, conn) // text, left unanswered

	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Contains(t, f.Error, ErrPromptTimeout.Error())
	assert.True(t, errors.Is(<-result, ErrPromptTimeout))
}
