package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/services"
	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayServer(t *testing.T) (*httptest.Server, *session.Manager, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	itemReg := items.NewVillageRegistry(items.Deps{
		Hooks:    services.NewMockWebhooks(),
		Webhooks: testConfig().Webhooks,
		Logger:   testLogger(),
	})
	m := session.NewManager(store, villageEvents(), itemReg, testLogger())
	srv := httptest.NewServer(NewPlayHandler(m, time.Minute, testLogger()))
	t.Cleanup(srv.Close)
	return srv, m, store
}

func playURL(srv *httptest.Server, scheme string, q url.Values) string {
	return scheme + strings.TrimPrefix(srv.URL, "http") + "/v1/play?" + q.Encode()
}

func TestPlayHandler_Rejections(t *testing.T) {
	srv, m, store := newPlayServer(t)

	p := state.NewPlayer("Mira")
	require.NoError(t, store.SavePlayer(context.Background(), p))
	busy := state.NewPlayer("Tam")
	require.NoError(t, store.SavePlayer(context.Background(), busy))
	lease, err := m.Open(context.Background(), busy.ID)
	require.NoError(t, err)
	defer lease.Release()

	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"bad player id", url.Values{"player": {"nope"}, "event": {"village-mentor"}}, http.StatusBadRequest},
		{"no target", url.Values{"player": {p.ID.String()}}, http.StatusBadRequest},
		{"two targets", url.Values{"player": {p.ID.String()}, "event": {"village-mentor"}, "item": {items.Antidote}}, http.StatusBadRequest},
		{"unknown event", url.Values{"player": {p.ID.String()}, "event": {"village-blacksmith"}}, http.StatusNotFound},
		{"unknown player", url.Values{"player": {uuid.NewString()}, "event": {"village-mentor"}}, http.StatusNotFound},
		{"busy player", url.Values{"player": {busy.ID.String()}, "event": {"village-mentor"}}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(playURL(srv, "http", tt.query))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPlayHandler_UseItem(t *testing.T) {
	srv, _, store := newPlayServer(t)

	p := state.NewPlayer("Mira")
	p.AddItem(items.Antidote, 1)
	p.AddState("poison")
	require.NoError(t, store.SavePlayer(context.Background(), p))

	conn, _, err := websocket.DefaultDialer.Dial(playURL(srv, "ws", url.Values{
		"player": {p.ID.String()},
		"item":   {items.Antidote},
	}), nil)
	require.NoError(t, err)
	defer conn.Close()

	var end session.Frame
	for {
		var f session.Frame
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&f))
		require.NotEqual(t, session.FrameError, f.Type, f.Error)
		if f.Type == session.FrameEnd {
			end = f
			break
		}
	}
	require.NotNil(t, end.Player)
	assert.False(t, end.Player.HasState("poison"))

	saved, err := store.LoadPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, saved.HasItem(items.Antidote))
	assert.False(t, saved.HasState("poison"))
}
