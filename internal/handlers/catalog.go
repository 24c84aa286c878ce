package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/npc"
)

// NPCHandler lists the NPC events a client can start sessions with.
type NPCHandler struct {
	events *npc.Registry
	logger *slog.Logger
}

func NewNPCHandler(events *npc.Registry, logger *slog.Logger) *NPCHandler {
	return &NPCHandler{events: events, logger: logger}
}

func (h *NPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.events.All())
}

// ItemHandler lists the item database.
type ItemHandler struct {
	items  *items.Registry
	logger *slog.Logger
}

func NewItemHandler(items *items.Registry, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

func (h *ItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.items.All())
}
