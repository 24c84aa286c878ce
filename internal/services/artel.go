package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/chat"
	"github.com/jwebster45206/artel-village/pkg/webhook"
)

// Artel chats with agents hosted on AgentArtel.
type Artel interface {
	// Chat never fails: transport and format problems come back as an
	// in-character fallback line.
	Chat(ctx context.Context, agentID, message string, history []chat.ChatMessage) string
}

type ArtelService struct {
	baseURL string
	apiKey  string
	hooks   Webhooks
	logger  *slog.Logger
}

var _ Artel = (*ArtelService)(nil)

func NewArtelService(cfg config.AgentArtel, hooks Webhooks, logger *slog.Logger) *ArtelService {
	return &ArtelService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		hooks:   hooks,
		logger:  logger,
	}
}

type artelChatRequest struct {
	Messages []chat.ChatMessage `json:"messages"`
}

func (a *ArtelService) Chat(ctx context.Context, agentID, message string, history []chat.ChatMessage) string {
	if !config.IsConfigured(a.baseURL) || agentID == "" {
		a.logger.Warn("AgentArtel is not configured", "agent_id", agentID)
		return webhook.ConnectionFallback
	}

	messages := make([]chat.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, chat.ChatMessage{
		ID:      fmt.Sprintf("rpg_%d", time.Now().UnixMilli()),
		Role:    chat.ChatRoleUser,
		Content: message,
	})

	endpoint := a.baseURL + "/api/chat/" + url.PathEscape(agentID)
	resp, err := a.hooks.PostJSON(ctx, endpoint, artelChatRequest{Messages: messages}, map[string]string{
		"x-api-key": a.apiKey,
	})
	if err != nil {
		a.logger.Error("AgentArtel chat failed", "agent_id", agentID, "error", err)
		return webhook.ConnectionFallback
	}

	return webhook.Text(a.logger, resp.Body)
}
