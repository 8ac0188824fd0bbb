// Package conflict реализует обнаружение и разрешение конфликтов версий.
//
// Конфликт фиксируется только когда удаленная версия ушла вперед
// относительно базовой версии локального изменения И контент реально
// различается. Совпадающий контент при разъехавшихся версиях — ложный
// конфликт: локальная запись просто принимает серверную версию.
// Автоматического разрешения нет: запись живет в хранилище до явного
// Resolve пользователем.
package conflict

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// Detector строит Conflict записи из 409 ответов сервера.
// Сервер присылает полное текущее состояние документа, поэтому
// детектору не нужны дополнительные запросы к сети.
type Detector struct {
	docs      storage.DocumentStorage
	conflicts storage.ConflictStorage
	bus       *events.Bus
	logger    *slog.Logger
}

// NewDetector creates a new conflict detector
func NewDetector(
	docs storage.DocumentStorage,
	conflicts storage.ConflictStorage,
	bus *events.Bus,
	logger *slog.Logger,
) *Detector {
	return &Detector{
		docs:      docs,
		conflicts: conflicts,
		bus:       bus,
		logger:    logger,
	}
}

// Detect сравнивает локальное состояние документа с присланным сервером
// текущим состоянием и решает, есть ли настоящий конфликт.
//
// Возвращает (nil, nil) для ложного конфликта: версии разъехались,
// но контент совпадает. В этом случае локальная запись уже приведена
// к серверной версии и помечена Synced.
func (d *Detector) Detect(ctx context.Context, localID string, resp *api.ConflictResponse) (*models.Conflict, error) {
	doc, err := d.docs.GetDocument(ctx, localID)
	if err != nil {
		return nil, fmt.Errorf("load local document: %w", err)
	}

	remote := resp.Current

	if sameContent(doc, &remote) {
		// Ложный конфликт: принимаем серверную версию без записи конфликта
		doc.Version = resp.CurrentVersion
		doc.SyncStatus = models.SyncStatusSynced
		now := time.Now()
		doc.LastSyncedAt = &now

		if err := d.docs.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("adopt remote version: %w", err)
		}

		d.logger.Info("False conflict: content identical, adopted remote version",
			"entity_id", localID,
			"version", resp.CurrentVersion,
		)
		d.bus.PublishStatusChanged(events.StatusChanged{
			EntityID: localID,
			Status:   models.SyncStatusSynced,
		})
		return nil, nil
	}

	kind := models.ConflictContent
	if remote.Deleted || doc.Deleted {
		kind = models.ConflictDeletion
	}

	conflict := &models.Conflict{
		DetectedAt: time.Now(),
		ID:         uuid.NewString(),
		EntityID:   localID,
		Kind:       kind,
		Local: models.ConflictVersion{
			UpdatedAt: doc.UpdatedAt,
			Title:     doc.Title,
			Content:   doc.Content,
			CRDTState: doc.CRDTState,
			Version:   doc.Version,
		},
		Remote: models.ConflictVersion{
			UpdatedAt: remote.UpdatedAt,
			Title:     remote.Title,
			Content:   remote.Content,
			CRDTState: remote.CRDTState,
			Version:   resp.CurrentVersion,
		},
	}

	if err := d.conflicts.SaveConflict(ctx, conflict); err != nil {
		return nil, fmt.Errorf("persist conflict: %w", err)
	}

	doc.SyncStatus = models.SyncStatusConflict
	if err := d.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark document conflicted: %w", err)
	}

	d.logger.Warn("Conflict detected",
		"entity_id", localID,
		"kind", string(kind),
		"local_version", conflict.Local.Version,
		"remote_version", conflict.Remote.Version,
	)
	d.bus.PublishConflictDetected(events.ConflictDetected{
		ConflictID: conflict.ID,
		EntityID:   localID,
	})
	d.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: localID,
		Status:   models.SyncStatusConflict,
	})

	return conflict, nil
}

// List возвращает все неразрешенные конфликты
func (d *Detector) List(ctx context.Context) ([]*models.Conflict, error) {
	return d.conflicts.ListConflicts(ctx)
}

// sameContent проверяет содержательное равенство локальной и удаленной
// версий. Сравниваются заголовок, текст и CRDT снапшот; служебные поля
// (версия, временные метки) различаться могут.
func sameContent(local *models.DocumentMeta, remote *api.Document) bool {
	if local.Deleted != remote.Deleted {
		return false
	}
	if local.Title != remote.Title || local.Content != remote.Content {
		return false
	}
	return bytes.Equal(local.CRDTState, remote.CRDTState)
}
