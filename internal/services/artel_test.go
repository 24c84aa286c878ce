package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/artel-village/pkg/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtelService_Chat(t *testing.T) {
	var req artelChatRequest
	var path, apiKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-api-key")
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &req))
		_, _ = w.Write([]byte("0:\"Dreams \"\n1:\"speak.\""))
	}))
	defer srv.Close()

	a := NewArtelService(config.AgentArtel{BaseURL: srv.URL + "/", APIKey: "secret"},
		NewWebhookClient(5*time.Second, testLogger()), testLogger())

	history := []chat.ChatMessage{chat.User("I dreamt of water"), chat.Agent("Water is feeling.")}
	reply := a.Chat(context.Background(), "dreamer", "And a boat?", history)

	assert.Equal(t, "Dreams speak.", reply)
	assert.Equal(t, "/api/chat/dreamer", path)
	assert.Equal(t, "secret", apiKey)
	require.Len(t, req.Messages, 3)
	last := req.Messages[2]
	assert.Equal(t, chat.ChatRoleUser, last.Role)
	assert.Equal(t, "And a boat?", last.Content)
	assert.True(t, strings.HasPrefix(last.ID, "rpg_"))
	assert.Len(t, history, 2, "caller history is not modified")
}

func TestArtelService_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AgentArtel
		agentID  string
		hook     func(ctx context.Context, url string, payload any, headers map[string]string) (*WebhookResponse, error)
		expected string
	}{
		{
			name:     "unconfigured base url",
			cfg:      config.AgentArtel{},
			agentID:  "dreamer",
			expected: webhook.ConnectionFallback,
		},
		{
			name:     "missing agent id",
			cfg:      config.AgentArtel{BaseURL: "https://artel.example"},
			expected: webhook.ConnectionFallback,
		},
		{
			name:    "transport failure",
			cfg:     config.AgentArtel{BaseURL: "https://artel.example"},
			agentID: "dreamer",
			hook: func(context.Context, string, any, map[string]string) (*WebhookResponse, error) {
				return nil, errors.New("connection refused")
			},
			expected: webhook.ConnectionFallback,
		},
		{
			name:    "unrecognized body",
			cfg:     config.AgentArtel{BaseURL: "https://artel.example"},
			agentID: "dreamer",
			hook: func(context.Context, string, any, map[string]string) (*WebhookResponse, error) {
				return &WebhookResponse{Status: 200, Body: []byte(`{"status":"ok"}`)}, nil
			},
			expected: webhook.FallbackReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := NewMockWebhooks()
			hooks.PostJSONFunc = tt.hook
			a := NewArtelService(tt.cfg, hooks, testLogger())

			assert.Equal(t, tt.expected, a.Chat(context.Background(), tt.agentID, "hello", nil))
		})
	}
}

func TestMockWebhooks(t *testing.T) {
	m := NewMockWebhooks()
	m.Respond("https://hook/a", `{"ok":true}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := m.PostJSON(ctx, "https://hook/a", map[string]int{"n": 1}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	resp, err = m.PostJSON(context.Background(), "https://hook/b", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Body))

	calls := m.CallsTo("https://hook/a")
	require.Len(t, calls, 1)
	assert.True(t, calls[0].HasDeadline)
	assert.JSONEq(t, `{"n":1}`, string(calls[0].Payload))
}
