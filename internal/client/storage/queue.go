package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out queue_mock.go . QueueStorage

// QueueStorage defines interface for the durable change queue.
// Записи сохраняются синхронно с локальной правкой, поэтому crash
// или закрытие приложения не теряют накопленные offline изменения.
type QueueStorage interface {
	// SaveChange stores or replaces a pending change
	SaveChange(ctx context.Context, change *models.PendingChange) error

	// GetChange retrieves a pending change by queue entry id
	// Returns ErrChangeNotFound if entry doesn't exist
	GetChange(ctx context.Context, id string) (*models.PendingChange, error)

	// GetChangeByKey retrieves a pending change by coalesce key
	// (entity id + operation class)
	GetChangeByKey(ctx context.Context, key string) (*models.PendingChange, error)

	// ListChanges returns pending changes of a workspace.
	// Empty workspaceID returns the whole queue.
	ListChanges(ctx context.Context, workspaceID string) ([]*models.PendingChange, error)

	// DeleteChange removes a pending change from the queue
	DeleteChange(ctx context.Context, id string) error

	// DeleteChangeIfPayload removes a pending change only if its stored
	// payload still equals payload. Возвращает false, если запись успела
	// схлопнуться со свежей правкой во время сетевой отправки — такая
	// запись должна остаться в очереди.
	DeleteChangeIfPayload(ctx context.Context, id string, payload []byte) (bool, error)

	// CountChanges returns the number of queued changes
	CountChanges(ctx context.Context) (int, error)

	// ClearQueue removes all pending changes.
	// Used on logout after explicit confirmation.
	ClearQueue(ctx context.Context) error
}
