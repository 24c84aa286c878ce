package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production", slog.LevelInfo).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	New(&buf, "development", slog.LevelInfo).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "development", slog.LevelWarn).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "development", slog.LevelDebug)

	WithError(WithPlayer(WithRequestID(base, "req-1"), "p-1"), errors.New("boom")).Info("x")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "player_id=p-1")
	assert.Contains(t, out, "error=boom")
}
