package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Webhook names accepted by Webhooks.URL.
const (
	WebhookArtGeneration   = "artGeneration"
	WebhookNPCDialogue     = "npcDialogue"
	WebhookQuestGiver      = "questGiver"
	WebhookArtGenerator    = "artGenerator"
	WebhookProcessFragment = "processFragment"
	WebhookGetItem         = "getItem"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Webhooks struct {
	ArtGeneration   string `env:"ART_GENERATION_WEBHOOK_URL" envDefault:"https://theagentartel.app.n8n.cloud/webhook-test/generate-art"`
	NPCDialogue     string `env:"NPC_DIALOGUE_WEBHOOK_URL" envDefault:"https://theagentartel.app.n8n.cloud/webhook-test/chat"`
	QuestGiver      string `env:"QUEST_GIVER_WEBHOOK_URL" envDefault:"https://theagentartel.app.n8n.cloud/webhook-test/quest_giver"`
	ArtGenerator    string `env:"ART_GENERATOR_WEBHOOK_URL" envDefault:"https://theagentartel.app.n8n.cloud/webhook-test/generate-art"`
	ProcessFragment string `env:"PROCESS_FRAGMENT_WEBHOOK_URL"`
	GetItem         string `env:"GET_ITEM_WEBHOOK_URL"`
}

// URL returns the webhook URL registered under name, or "" when unknown.
func (w Webhooks) URL(name string) string {
	switch name {
	case WebhookArtGeneration:
		return w.ArtGeneration
	case WebhookNPCDialogue:
		return w.NPCDialogue
	case WebhookQuestGiver:
		return w.QuestGiver
	case WebhookArtGenerator:
		return w.ArtGenerator
	case WebhookProcessFragment:
		return w.ProcessFragment
	case WebhookGetItem:
		return w.GetItem
	default:
		return ""
	}
}

// All returns every webhook keyed by name.
func (w Webhooks) All() map[string]string {
	return map[string]string{
		WebhookArtGeneration:   w.ArtGeneration,
		WebhookNPCDialogue:     w.NPCDialogue,
		WebhookQuestGiver:      w.QuestGiver,
		WebhookArtGenerator:    w.ArtGenerator,
		WebhookProcessFragment: w.ProcessFragment,
		WebhookGetItem:         w.GetItem,
	}
}

// IsConfigured reports whether u is usable: non-empty and not a placeholder
// left over from an example .env.
func IsConfigured(u string) bool {
	return strings.TrimSpace(u) != "" && !strings.Contains(u, "placeholder")
}

type AgentArtel struct {
	BaseURL          string `env:"AGENT_ARTEL_BASE_URL"`
	APIKey           string `env:"AGENT_ARTEL_API_KEY"`
	DreamInterpreter string `env:"DREAM_INTERPRETER_AGENT_ID"`
}

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"data/village.db"`

	WebhookTimeout       time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"90s"`
	SessionPromptTimeout time.Duration `env:"SESSION_PROMPT_TIMEOUT" envDefault:"10m"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	DefaultPaintingURL string `env:"DEFAULT_PAINTING_URL" envDefault:"https://cdn.midjourney.com/c21f4371-f4ea-465d-87fc-c28e66576b5c/0_2.png"`

	Webhooks   Webhooks
	AgentArtel AgentArtel
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageRedis, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want redis, sqlite or memory", c.StorageBackend)
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %s", c.WebhookTimeout)
	}
	if c.OTelEnabled && c.OTelEndpoint == "" {
		return errors.New("OTEL_ENABLED requires OTEL_ENDPOINT")
	}
	return nil
}

// WebhookProblems lists configured webhook URLs that do not parse as
// absolute http(s) URLs, plus the names of unconfigured ones.
func (c *Config) WebhookProblems() (invalid map[string]error, unconfigured []string) {
	invalid = make(map[string]error)
	for name, raw := range c.Webhooks.All() {
		if !IsConfigured(raw) {
			unconfigured = append(unconfigured, name)
			continue
		}
		if err := checkURL(raw); err != nil {
			invalid[name] = err
		}
	}
	if IsConfigured(c.AgentArtel.BaseURL) {
		if err := checkURL(c.AgentArtel.BaseURL); err != nil {
			invalid["agentArtel"] = err
		}
	} else {
		unconfigured = append(unconfigured, "agentArtel")
	}
	slices.Sort(unconfigured)
	return invalid, unconfigured
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
