package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
)

const maxPlayerName = 40

type CreatePlayerRequest struct {
	Name string `json:"name"`
}

// IndicatorsResponse lists the bubbles NPCs keep showing for a player.
type IndicatorsResponse struct {
	Indicators map[string]emotion.Bubble `json:"indicators"`
}

type PlayerHandler struct {
	storage storage.Storage
	events  *npc.Registry
	logger  *slog.Logger
}

func NewPlayerHandler(storage storage.Storage, events *npc.Registry, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		storage: storage,
		events:  events,
		logger:  logger,
	}
}

// ServeHTTP routes:
// POST /v1/players                   - Create a player
// GET /v1/players/{id}               - Read a player
// GET /v1/players/{id}/indicators    - NPC bubbles for the player
// DELETE /v1/players/{id}            - Delete a player
func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := pathID(r.URL.Path, "/v1/players")
	if !ok {
		h.logger.Warn("Invalid player ID", "path", r.URL.Path)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid player ID format")
		return
	}
	if rest != "" && rest != "indicators" {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodPost:
		if id != uuid.Nil {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		if id == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Player ID is required for GET requests")
			return
		}
		if rest == "indicators" {
			h.handleIndicators(w, r, id)
			return
		}
		h.handleRead(w, r, id)

	case http.MethodDelete:
		if id == uuid.Nil || rest != "" {
			writeError(w, h.logger, http.StatusBadRequest, "Player ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, id)

	default:
		h.logger.Warn("Method not allowed for player endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *PlayerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Name is required")
		return
	}
	if utf8.RuneCountInString(name) > maxPlayerName {
		writeError(w, h.logger, http.StatusBadRequest, "Name is too long")
		return
	}

	p := state.NewPlayer(name)
	if err := h.storage.SavePlayer(r.Context(), p); err != nil {
		h.logger.Error("Failed to save player", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create player")
		return
	}

	h.logger.Info("Player created", "player_id", p.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, p)
}

func (h *PlayerHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) *state.Player {
	p, err := h.storage.LoadPlayer(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load player", "error", err, "player_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load player")
		return nil
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Player not found")
		return nil
	}
	return p
}

func (h *PlayerHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if p := h.load(w, r, id); p != nil {
		writeJSON(w, h.logger, http.StatusOK, p)
	}
}

func (h *PlayerHandler) handleIndicators(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if p := h.load(w, r, id); p != nil {
		writeJSON(w, h.logger, http.StatusOK, IndicatorsResponse{Indicators: h.events.Indicators(p)})
	}
}

func (h *PlayerHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if p := h.load(w, r, id); p == nil {
		return
	}
	if err := h.storage.DeletePlayer(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete player", "error", err, "player_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete player")
		return
	}
	h.logger.Info("Player deleted", "player_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}
