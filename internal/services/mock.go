package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jwebster45206/artel-village/pkg/chat"
)

// MockWebhooks is a mock implementation of Webhooks for testing
type MockWebhooks struct {
	// PostJSONFunc overrides the default behavior, which replies with
	// Responses[url] or an empty JSON object.
	PostJSONFunc func(ctx context.Context, url string, payload any, headers map[string]string) (*WebhookResponse, error)
	Responses    map[string]string

	// Track calls for testing
	Calls []PostJSONCall

	mu sync.Mutex // protects all fields above
}

type PostJSONCall struct {
	URL     string
	Payload json.RawMessage
	Headers map[string]string
	// HasDeadline records whether the call carried a context deadline.
	HasDeadline bool
}

var _ Webhooks = (*MockWebhooks)(nil)

func NewMockWebhooks() *MockWebhooks {
	return &MockWebhooks{
		Responses: make(map[string]string),
		Calls:     make([]PostJSONCall, 0),
	}
}

// Respond registers a canned body for url.
func (m *MockWebhooks) Respond(url, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[url] = body
}

func (m *MockWebhooks) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) (*WebhookResponse, error) {
	m.mu.Lock()
	raw, _ := json.Marshal(payload)
	_, hasDeadline := ctx.Deadline()
	m.Calls = append(m.Calls, PostJSONCall{URL: url, Payload: raw, Headers: headers, HasDeadline: hasDeadline})
	fn := m.PostJSONFunc
	body, ok := m.Responses[url]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, url, payload, headers)
	}
	if !ok {
		body = "{}"
	}
	return &WebhookResponse{Status: 200, Body: []byte(body)}, nil
}

// CallsTo returns the recorded calls to url.
func (m *MockWebhooks) CallsTo(url string) []PostJSONCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PostJSONCall
	for _, c := range m.Calls {
		if c.URL == url {
			out = append(out, c)
		}
	}
	return out
}

// MockArtel is a mock implementation of Artel for testing
type MockArtel struct {
	ChatFunc func(ctx context.Context, agentID, message string, history []chat.ChatMessage) string
	Reply    string

	ChatCalls []ChatCall

	mu sync.Mutex
}

type ChatCall struct {
	AgentID string
	Message string
	History []chat.ChatMessage
}

var _ Artel = (*MockArtel)(nil)

func (m *MockArtel) Chat(ctx context.Context, agentID, message string, history []chat.ChatMessage) string {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{
		AgentID: agentID,
		Message: message,
		History: chat.Last(history, len(history)),
	})
	fn := m.ChatFunc
	reply := m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, agentID, message, history)
	}
	return reply
}
