package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// sqliteStateRepo persists the cursor and auxiliary values in a local
// SQLite file, for single-host deployments that should not hammer the
// spreadsheet on every cycle.
type sqliteStateRepo struct {
	db *sql.DB
}

// NewSQLiteStateRepo creates a SQLite-backed state repository
func NewSQLiteStateRepo(dbPath string) (repo.StateRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS state (
			state_key TEXT PRIMARY KEY,
			state_value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &sqliteStateRepo{db: db}, nil
}

func (r *sqliteStateRepo) Get(ctx context.Context, key string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT state_value FROM state WHERE state_key = ?
	`, key)

	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query state: %w", err)
	}
	return value, nil
}

func (r *sqliteStateRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO state (state_key, state_value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (r *sqliteStateRepo) LoadCursor(ctx context.Context) (*domain.RotationCursor, error) {
	raw, err := r.Get(ctx, cursorStateKey)
	if err != nil {
		return nil, &domain.StatePersistError{Cause: err}
	}
	return decodeCursor(raw)
}

func (r *sqliteStateRepo) SaveCursor(ctx context.Context, cursor *domain.RotationCursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return &domain.StatePersistError{Cause: err}
	}
	if err := r.Set(ctx, cursorStateKey, string(raw)); err != nil {
		return &domain.StatePersistError{Cause: err}
	}
	return nil
}

// Close closes the database connection
func (r *sqliteStateRepo) Close() error {
	return r.db.Close()
}
