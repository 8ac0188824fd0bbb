package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/crdt"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// Enqueuer ставит изменение в durable очередь синхронизации
type Enqueuer interface {
	Enqueue(ctx context.Context, change *models.PendingChange) error
}

// Resolver применяет выбор пользователя к конфликту.
//
// choose local — локальная версия уходит на сервер новой авторитетной
// записью: базовой версией становится текущая серверная, изменение
// встает в очередь и будет принято сервером при следующем проходе.
//
// choose remote — локальная версия затирается серверной: контент,
// CRDT состояние и версия берутся из снимка конфликта, отложенное
// изменение удаляется из очереди.
type Resolver struct {
	docs      storage.DocumentStorage
	conflicts storage.ConflictStorage
	queue     storage.QueueStorage
	enqueuer  Enqueuer
	engine    *crdt.Engine
	bus       *events.Bus
	logger    *slog.Logger
}

// NewResolver creates a new conflict resolver
func NewResolver(
	docs storage.DocumentStorage,
	conflicts storage.ConflictStorage,
	queue storage.QueueStorage,
	enqueuer Enqueuer,
	engine *crdt.Engine,
	bus *events.Bus,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		docs:      docs,
		conflicts: conflicts,
		queue:     queue,
		enqueuer:  enqueuer,
		engine:    engine,
		bus:       bus,
		logger:    logger,
	}
}

// Resolve разрешает конфликт по выбору пользователя и удаляет запись
// конфликта. Повторный Resolve того же конфликта вернет
// storage.ErrConflictNotFound.
func (r *Resolver) Resolve(ctx context.Context, conflictID string, choice models.ConflictChoice) error {
	conflict, err := r.conflicts.GetConflict(ctx, conflictID)
	if err != nil {
		return fmt.Errorf("load conflict: %w", err)
	}

	doc, err := r.docs.GetDocument(ctx, conflict.EntityID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	switch choice {
	case models.ChoiceLocal:
		err = r.keepLocal(ctx, conflict, doc)
	case models.ChoiceRemote:
		err = r.keepRemote(ctx, conflict, doc)
	default:
		return fmt.Errorf("unknown conflict choice %q", choice)
	}
	if err != nil {
		return err
	}

	if err := r.conflicts.DeleteConflict(ctx, conflictID); err != nil {
		return fmt.Errorf("delete conflict record: %w", err)
	}

	r.logger.Info("Conflict resolved",
		"conflict_id", conflictID,
		"entity_id", conflict.EntityID,
		"choice", string(choice),
	)

	return nil
}

// keepLocal переигрывает локальную версию поверх серверной.
// Базовой версией становится серверная: следующий update пройдет
// optimistic check, если сервер не уйдет вперед еще раз.
func (r *Resolver) keepLocal(ctx context.Context, conflict *models.Conflict, doc *models.DocumentMeta) error {
	doc.Version = conflict.Remote.Version
	doc.SyncStatus = models.SyncStatusModified

	if err := r.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("rebase document onto remote version: %w", err)
	}

	expected := conflict.Remote.Version
	payload, err := json.Marshal(api.DocumentUpdateRequest{
		Title:           &doc.Title,
		Content:         &doc.Content,
		CRDTState:       doc.CRDTState,
		ExpectedVersion: &expected,
	})
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	// Через общий Enqueue очереди: запись схлопывается с уже отложенным
	// update (конфликтный payload устарел, уходит свежий с новой базовой
	// версией), а при живой сети отправка запускается немедленно
	err = r.enqueuer.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: doc.WorkspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    doc.LocalID,
		Operation:   models.OpUpdate,
		Payload:     payload,
		Priority:    models.PriorityCritical, // явное действие пользователя
	})
	if err != nil {
		return fmt.Errorf("enqueue resolved change: %w", err)
	}

	r.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   models.SyncStatusModified,
	})

	return nil
}

// keepRemote затирает локальную версию серверной из снимка конфликта
func (r *Resolver) keepRemote(ctx context.Context, conflict *models.Conflict, doc *models.DocumentMeta) error {
	doc.Title = conflict.Remote.Title
	doc.Content = conflict.Remote.Content
	doc.CRDTState = conflict.Remote.CRDTState
	doc.Version = conflict.Remote.Version
	doc.UpdatedAt = conflict.Remote.UpdatedAt
	doc.SyncStatus = models.SyncStatusSynced
	now := time.Now()
	doc.LastSyncedAt = &now

	if err := r.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("overwrite document with remote version: %w", err)
	}

	// Загруженный в движок документ заменяется целиком: merge здесь
	// неуместен, пользователь явно отказался от локальной версии
	if len(conflict.Remote.CRDTState) > 0 {
		if err := r.engine.Replace(doc.LocalID, conflict.Remote.CRDTState); err != nil {
			return fmt.Errorf("replace document state: %w", err)
		}
	} else {
		r.engine.Drop(doc.LocalID)
	}

	// Отложенное изменение несло отвергнутую локальную версию
	if prev, err := r.queue.GetChangeByKey(ctx, doc.LocalID+"/"+string(models.OpUpdate)); err == nil {
		if err := r.queue.DeleteChange(ctx, prev.ID); err != nil {
			return fmt.Errorf("drop queued change: %w", err)
		}
	} else if !errors.Is(err, storage.ErrChangeNotFound) {
		return fmt.Errorf("lookup queued change: %w", err)
	}

	r.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   models.SyncStatusSynced,
	})

	return nil
}
