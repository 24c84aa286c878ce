package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/storage"
)

const serviceName = "artel-village"

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Components map[string]interface{} `json:"components"`
}

type HealthHandler struct {
	storage storage.Storage
	cfg     *config.Config
	logger  *slog.Logger
}

func NewHealthHandler(storage storage.Storage, cfg *config.Config, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]interface{})
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = map[string]interface{}{
			"status":  "unhealthy",
			"backend": h.cfg.StorageBackend,
		}
		overallStatus = "degraded"
	} else {
		components["storage"] = map[string]interface{}{
			"status":  "healthy",
			"backend": h.cfg.StorageBackend,
		}
	}

	// Webhook problems are reported but never fail the check: scripts
	// answer unreachable webhooks in character.
	components["webhooks"] = h.webhookSummary()

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    serviceName,
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}

func (h *HealthHandler) webhookSummary() map[string]string {
	invalid, unconfigured := h.cfg.WebhookProblems()

	summary := make(map[string]string)
	for name := range h.cfg.Webhooks.All() {
		summary[name] = "configured"
	}
	summary["agentArtel"] = "configured"
	for _, name := range unconfigured {
		summary[name] = "unconfigured"
	}
	for name := range invalid {
		summary[name] = "invalid"
	}
	return summary
}
