package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/state"
)

type ConsoleConfig struct {
	APIBaseURL string
	PlayerID   string
	PlayerName string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: strings.TrimSuffix(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		PlayerID:   os.Getenv("PLAYER_ID"),
		PlayerName: os.Getenv("PLAYER_NAME"),
		Timeout:    30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: go run ./cmd/api\n")
		os.Exit(1)
	}

	player, err := resolvePlayer(client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up player: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Playing as %s (PLAYER_ID=%s)\n", player.Name, player.ID)

	p := tea.NewProgram(NewConsoleUI(cfg, client, player),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// resolvePlayer resumes PLAYER_ID when set, otherwise creates a new player
// named PLAYER_NAME or whatever is typed at the prompt.
func resolvePlayer(client *http.Client, cfg *ConsoleConfig) (*state.Player, error) {
	if cfg.PlayerID != "" {
		id, err := uuid.Parse(cfg.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("invalid PLAYER_ID: %w", err)
		}
		return getPlayer(client, cfg.APIBaseURL, id)
	}

	name := strings.TrimSpace(cfg.PlayerName)
	if name == "" {
		fmt.Print("What is your name, traveler? ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("failed to read name: %w", err)
		}
		name = strings.TrimSpace(line)
	}
	if name == "" {
		name = "Traveler"
	}
	return createPlayer(client, cfg.APIBaseURL, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
