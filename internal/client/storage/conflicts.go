package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out conflicts_mock.go . ConflictStorage

// ConflictStorage defines interface for persisted conflict records.
// Конфликты переживают рестарт: пользователь может разрешить их
// в любом порядке и в любой момент.
type ConflictStorage interface {
	// SaveConflict stores a conflict record
	SaveConflict(ctx context.Context, conflict *models.Conflict) error

	// GetConflict retrieves a conflict by id
	// Returns ErrConflictNotFound if conflict doesn't exist
	GetConflict(ctx context.Context, id string) (*models.Conflict, error)

	// ListConflicts returns all unresolved conflicts
	ListConflicts(ctx context.Context) ([]*models.Conflict, error)

	// DeleteConflict removes a resolved conflict
	DeleteConflict(ctx context.Context, id string) error
}
