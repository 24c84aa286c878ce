package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes payload with status. Encoding failures can only be
// logged once the header is out.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// pathID parses the uuid following prefix, e.g. "/v1/players/{id}". It
// returns uuid.Nil with ok=true when the path has no id segment; rest holds
// anything after the id.
func pathID(path, prefix string) (id uuid.UUID, rest string, ok bool) {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" {
		return uuid.Nil, "", true
	}
	raw, rest, _ := strings.Cut(tail, "/")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, rest, true
}
