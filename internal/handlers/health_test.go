package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testConfig() *config.Config {
	return &config.Config{
		StorageBackend: config.StorageMemory,
		Webhooks: config.Webhooks{
			ArtGeneration: "https://example.com/art",
			NPCDialogue:   "ftp://example.com/chat",
			QuestGiver:    "https://example.com/quest",
			ArtGenerator:  "https://example.com/gen",
		},
	}
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name            string
		pingErr         error
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
	}{
		{
			name:            "all healthy",
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
		},
		{
			name:            "unhealthy storage",
			pingErr:         errors.New("connection failed"),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			store.SetPingError(tt.pingErr)
			handler := NewHealthHandler(store, testConfig(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, response.Status)
			}

			if response.Service != "artel-village" {
				t.Errorf("Expected service 'artel-village', got '%s'", response.Service)
			}

			storageComponent, ok := response.Components["storage"].(map[string]interface{})
			if !ok {
				t.Fatalf("Expected storage component to be a map, got %T", response.Components["storage"])
			}
			if storageComponent["status"] != tt.expectedStorage {
				t.Errorf("Expected storage status '%s', got '%v'", tt.expectedStorage, storageComponent["status"])
			}
			if storageComponent["backend"] != config.StorageMemory {
				t.Errorf("Expected backend 'memory', got '%v'", storageComponent["backend"])
			}

			if time.Since(response.Timestamp) > time.Second {
				t.Errorf("Health check timestamp seems old: %v", response.Timestamp)
			}
		})
	}
}

func TestHealthHandler_WebhookSummary(t *testing.T) {
	handler := NewHealthHandler(storage.NewMemoryStorage(), testConfig(), testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Webhook problems must not degrade health, got %d", rr.Code)
	}

	var response struct {
		Components struct {
			Webhooks map[string]string `json:"webhooks"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	want := map[string]string{
		config.WebhookArtGeneration:   "configured",
		config.WebhookNPCDialogue:     "invalid",
		config.WebhookQuestGiver:      "configured",
		config.WebhookArtGenerator:    "configured",
		config.WebhookProcessFragment: "unconfigured",
		config.WebhookGetItem:         "unconfigured",
		"agentArtel":                  "unconfigured",
	}
	for name, status := range want {
		if got := response.Components.Webhooks[name]; got != status {
			t.Errorf("webhook %s: expected %q, got %q", name, status, got)
		}
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler(storage.NewMemoryStorage(), testConfig(), testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
