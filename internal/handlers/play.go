package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/artel-village/internal/logger"
	"github.com/jwebster45206/artel-village/internal/middleware"
	"github.com/jwebster45206/artel-village/internal/session"
)

// PlayHandler upgrades GET /v1/play?player={id}&event={name} (or &item={id})
// to a websocket and runs one session over it.
type PlayHandler struct {
	manager       *session.Manager
	promptTimeout time.Duration
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

func NewPlayHandler(manager *session.Manager, promptTimeout time.Duration, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{
		manager:       manager,
		promptTimeout: promptTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API has no cookies or ambient credentials to protect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	playerID, err := uuid.Parse(q.Get("player"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid player ID format")
		return
	}
	target := session.Target{Event: q.Get("event"), Item: q.Get("item")}

	if err := h.manager.Check(target); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrUnknownTarget) {
			status = http.StatusNotFound
		}
		writeError(w, h.logger, status, err.Error())
		return
	}

	lease, err := h.manager.Open(r.Context(), playerID)
	switch {
	case errors.Is(err, session.ErrPlayerNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Player not found")
		return
	case errors.Is(err, session.ErrBusy):
		writeError(w, h.logger, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to open session", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to open session")
		return
	}
	defer lease.Release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	log := logger.WithPlayer(middleware.LoggerFrom(r.Context(), h.logger), playerID.String())
	p := session.NewWebSocketPlayer(conn, lease.Player(), h.promptTimeout, log)
	runErr := h.manager.Run(r.Context(), lease, p, target)
	p.Finish(runErr)
}
