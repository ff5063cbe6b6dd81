package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/querylab/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS editor_states (
		session_id TEXT NOT NULL,
		lab_id TEXT NOT NULL,
		example_id TEXT NOT NULL,
		dataset TEXT NOT NULL,
		query_text TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, lab_id, example_id, dataset)
	);

	CREATE INDEX IF NOT EXISTS idx_editor_states_updated_at ON editor_states(session_id, updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// NewSession registers a new session and returns its id.
func (s *SQLiteStorage) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?)`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// SessionExists reports whether a session has been created or has saved state.
func (s *SQLiteStorage) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID,
	).Scan(&n)
	return n > 0, err
}

// DeleteSession removes a session and all of its editor states, returning
// how many states were removed.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM editor_states WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	states, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	sessions, _ := res.RowsAffected()
	if sessions == 0 && states == 0 {
		return 0, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return states, tx.Commit()
}

// SaveState inserts or replaces the editor state for its key. The session is
// registered if it was not already. UpdatedAt is set to now.
func (s *SQLiteStorage) SaveState(ctx context.Context, state *models.EditorState) error {
	if state.SessionID == "" || state.LabID == "" || state.ExampleID == "" {
		return fmt.Errorf("%w: session, lab and example are required", ErrInvalidState)
	}
	if !state.Dataset.Valid() {
		return fmt.Errorf("%w: unknown dataset %q", ErrInvalidState, state.Dataset)
	}

	state.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`,
		state.SessionID, state.UpdatedAt,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO editor_states (session_id, lab_id, example_id, dataset, query_text, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, lab_id, example_id, dataset)
		 DO UPDATE SET query_text = excluded.query_text, updated_at = excluded.updated_at`,
		state.SessionID, state.LabID, state.ExampleID, string(state.Dataset), state.QueryText, state.UpdatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// GetState returns the editor state for one key.
func (s *SQLiteStorage) GetState(ctx context.Context, sessionID, labID, exampleID string, dataset models.Dataset) (*models.EditorState, error) {
	var st models.EditorState
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, lab_id, example_id, dataset, query_text, updated_at
		 FROM editor_states
		 WHERE session_id = ? AND lab_id = ? AND example_id = ? AND dataset = ?`,
		sessionID, labID, exampleID, string(dataset),
	).Scan(&st.SessionID, &st.LabID, &st.ExampleID, &st.Dataset, &st.QueryText, &st.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("editor state %s/%s/%s: %w", labID, exampleID, dataset, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStates returns every editor state of a session, most recent first.
func (s *SQLiteStorage) ListStates(ctx context.Context, sessionID string) ([]*models.EditorState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, lab_id, example_id, dataset, query_text, updated_at
		 FROM editor_states WHERE session_id = ?
		 ORDER BY updated_at DESC, lab_id, example_id, dataset`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]*models.EditorState, 0)
	for rows.Next() {
		var st models.EditorState
		if err := rows.Scan(&st.SessionID, &st.LabID, &st.ExampleID, &st.Dataset, &st.QueryText, &st.UpdatedAt); err != nil {
			return nil, err
		}
		states = append(states, &st)
	}
	return states, rows.Err()
}

// CountSessions returns the total number of sessions.
func (s *SQLiteStorage) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CountStates returns the total number of editor states.
func (s *SQLiteStorage) CountStates(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM editor_states`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
