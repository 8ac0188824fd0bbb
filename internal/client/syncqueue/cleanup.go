package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// CleanupStale удаляет из очереди мусорные записи:
//   - исчерпавшие попытки и старше StaleAfter — бесконечные повторы
//     заведомо мертвой записи только жгут батарею и сеть;
//   - осиротевшие — их сущность уже удалена из локального хранилища.
//
// Удаление протухшей записи не трогает локальные данные: документ
// остается в статусе Error, пользователь видит проблему.
func (m *Manager) CleanupStale(ctx context.Context) error {
	changes, err := m.queue.ListChanges(ctx, "")
	if err != nil {
		return fmt.Errorf("list queued changes: %w", err)
	}

	cutoff := time.Now().Add(-m.cfg.StaleAfter)
	var removed int

	for _, change := range changes {
		stale := change.RetryCount >= m.cfg.MaxRetries && change.EnqueuedAt.Before(cutoff)

		orphaned, err := m.isOrphaned(ctx, change)
		if err != nil {
			return err
		}

		if !stale && !orphaned {
			continue
		}

		if err := m.queue.DeleteChange(ctx, change.ID); err != nil {
			return fmt.Errorf("delete stale change: %w", err)
		}
		removed++

		m.logger.Info("Removed stale queue entry",
			"entity_id", change.EntityID,
			"operation", string(change.Operation),
			"retry_count", change.RetryCount,
			"orphaned", orphaned,
		)
	}

	if removed > 0 {
		m.logger.Info("Stale cleanup finished", "removed", removed)
	}
	return nil
}

// isOrphaned проверяет, существует ли еще сущность записи
func (m *Manager) isOrphaned(ctx context.Context, change *models.PendingChange) (bool, error) {
	switch change.EntityType {
	case models.EntityDocument:
		_, err := m.docs.GetDocument(ctx, change.EntityID)
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("check document: %w", err)
		}
	case models.EntityFolder:
		_, err := m.workspaces.GetFolder(ctx, change.EntityID)
		if errors.Is(err, storage.ErrFolderNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("check folder: %w", err)
		}
	case models.EntityWorkspace:
		_, err := m.workspaces.GetWorkspace(ctx, change.EntityID)
		if errors.Is(err, storage.ErrWorkspaceNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("check workspace: %w", err)
		}
	}
	return false, nil
}
