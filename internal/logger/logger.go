package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/artel-village/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	return New(os.Stdout, cfg.Environment, cfg.LogLevel)
}

// New builds a logger writing to w. Production logs are JSON, everything
// else is text.
func New(w io.Writer, environment string, level slog.Level) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithPlayer scopes a logger to one player's session.
func WithPlayer(logger *slog.Logger, playerID string) *slog.Logger {
	return logger.With("player_id", playerID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
