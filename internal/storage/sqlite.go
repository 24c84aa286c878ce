package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const playersSchema = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStorage keeps players in a single-file SQLite database for
// deployments without Redis.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(playersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create players table: %w", err)
	}

	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) SavePlayer(ctx context.Context, p *state.Player) error {
	p.Touch()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		p.ID.String(), p.Name, string(data), p.UpdatedAt.Format(timeFormat))
	if err != nil {
		s.logger.Error("Failed to save player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadPlayer(ctx context.Context, id uuid.UUID) (*state.Player, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM players WHERE id = ?`, id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("Failed to load player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var p state.Player
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStorage) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}
