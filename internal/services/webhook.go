package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/artel-village/internal/telemetry"
	"github.com/jwebster45206/artel-village/pkg/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of a webhook body is read.
const maxResponseBytes = 4 << 20

// Webhooks posts JSON payloads to the AI webhooks.
type Webhooks interface {
	PostJSON(ctx context.Context, url string, payload any, headers map[string]string) (*WebhookResponse, error)
}

type WebhookResponse struct {
	Status int
	Body   []byte
}

// StatusError is returned for non-2xx webhook responses.
type StatusError struct {
	URL    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook %s returned %d: %s", e.URL, e.Status, webhook.Sample(e.Body, 200))
}

// WebhookClient implements Webhooks over net/http.
type WebhookClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Webhooks = (*WebhookClient)(nil)

func NewWebhookClient(timeout time.Duration, logger *slog.Logger) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *WebhookClient) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) (resp *WebhookResponse, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "webhook.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", url)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Webhook request failed", "url", url, "error", err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	c.logger.Debug("Webhook response",
		"url", url,
		"status", httpResp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Status: httpResp.StatusCode, Body: body}
	}

	return &WebhookResponse{Status: httpResp.StatusCode, Body: body}, nil
}
