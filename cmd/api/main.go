package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/internal/handlers"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/logger"
	"github.com/jwebster45206/artel-village/internal/middleware"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/services"
	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/internal/storage"
	"github.com/jwebster45206/artel-village/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Artel Village API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend)

	shutdownTracing, err := telemetry.Setup(context.Background(), "artel-village-api", cfg.OTelEnabled, cfg.OTelEndpoint)
	if err != nil {
		log.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	invalid, unconfigured := cfg.WebhookProblems()
	for name, err := range invalid {
		log.Warn("Invalid webhook URL", "webhook", name, "error", err)
	}
	if len(unconfigured) > 0 {
		log.Warn("Webhooks not configured, NPCs using them will answer with fallbacks", "webhooks", unconfigured)
	}

	store, err := storage.Open(cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.WaitForConnection(storageCtx, store, 60, 2*time.Second, log); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	hooks := services.NewWebhookClient(cfg.WebhookTimeout, log)
	artel := services.NewArtelService(cfg.AgentArtel, hooks, log)

	events := npc.NewVillageRegistry(npc.Deps{
		Hooks:              hooks,
		Artel:              artel,
		Webhooks:           cfg.Webhooks,
		AgentArtel:         cfg.AgentArtel,
		DefaultPaintingURL: cfg.DefaultPaintingURL,
		Logger:             log,
	})
	itemReg := items.NewVillageRegistry(items.Deps{
		Hooks:              hooks,
		Webhooks:           cfg.Webhooks,
		DefaultPaintingURL: cfg.DefaultPaintingURL,
		Logger:             log,
	})
	manager := session.NewManager(store, events, itemReg, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, cfg, log))

	playerHandler := handlers.NewPlayerHandler(store, events, log)
	mux.Handle("/v1/players", playerHandler)
	mux.Handle("/v1/players/", playerHandler)

	mux.Handle("/v1/npcs", handlers.NewNPCHandler(events, log))
	mux.Handle("/v1/items", handlers.NewItemHandler(itemReg, log))
	mux.Handle("/v1/play", handlers.NewPlayHandler(manager, cfg.SessionPromptTimeout, log))

	handler := middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recover(log),
	)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: play sessions hold their connection for as long as the player talks.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
