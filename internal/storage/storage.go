// Package storage persists the query text each editor session leaves in a
// lab example, so switching datasets or reloading can start from it.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/querylab/internal/models"
)

var (
	// ErrNotFound is returned when a session or editor state does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an editor state is missing part of its key.
	ErrInvalidState = errors.New("invalid editor state")
)

// Storage defines editor-state persistence operations.
type Storage interface {
	// Session operations
	NewSession(ctx context.Context) (string, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)

	// Editor state operations
	SaveState(ctx context.Context, state *models.EditorState) error
	GetState(ctx context.Context, sessionID, labID, exampleID string, dataset models.Dataset) (*models.EditorState, error)
	ListStates(ctx context.Context, sessionID string) ([]*models.EditorState, error)

	// Stats
	CountSessions(ctx context.Context) (int64, error)
	CountStates(ctx context.Context) (int64, error)

	Close() error
}
