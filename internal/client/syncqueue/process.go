package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// opRank порядок операций внутри одной сущности: create до update,
// delete последним
var opRank = map[models.Operation]int{
	models.OpCreate: 0,
	models.OpUpdate: 1,
	models.OpDelete: 2,
}

// ProcessQueue выполняет один проход обработки очереди.
//
// Пустая очередь не трогает сеть вообще. Записи обрабатываются
// по приоритету, внутри приоритета — старые раньше; записи в backoff
// окне пропускаются. Неуспех ранней записи сущности блокирует ее
// поздние записи до следующего прохода: create обязан уйти раньше
// update той же сущности.
func (m *Manager) ProcessQueue(ctx context.Context, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changes, err := m.queue.ListChanges(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("list queued changes: %w", err)
	}
	if len(changes) == 0 {
		return nil
	}

	if !m.monitor.IsOnline() {
		return nil
	}

	token, err := m.token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	sortChanges(changes)

	var processed, failed int
	now := time.Now()
	blocked := make(map[string]bool) // сущности с неуспехом в этом проходе

	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			break
		}
		if change.NextRetryAt.After(now) || blocked[change.EntityID] {
			continue
		}

		err := m.applyChange(ctx, token, change)
		switch {
		case err == nil:
			processed++
			if err := m.dequeueSent(ctx, change); err != nil {
				return fmt.Errorf("dequeue applied change: %w", err)
			}

		case errors.Is(err, errAwaitingResolution):
			// Конфликт у пользователя, запись ждет Resolve
			blocked[change.EntityID] = true

		case apiclient.IsUnauthorized(err):
			// Токен умер, продолжать проход бессмысленно
			m.logger.Warn("Queue pass aborted: authentication required")
			return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)

		case apiclient.IsValidation(err):
			// Постоянная ошибка данных: повтор не поможет, запись
			// удаляется чтобы не блокировать очередь
			failed++
			m.logger.Error("Dropping invalid queued change",
				"entity_id", change.EntityID,
				"operation", string(change.Operation),
				"error", err,
			)
			if err := m.queue.DeleteChange(ctx, change.ID); err != nil {
				return fmt.Errorf("drop invalid change: %w", err)
			}
			m.markError(ctx, change)

		default:
			failed++
			blocked[change.EntityID] = true
			m.backoff(ctx, change, err)
		}
	}

	if processed > 0 {
		if err := m.meta.SaveLastSyncAt(ctx, time.Now().Unix()); err != nil {
			m.logger.Warn("Failed to record last sync time", "error", err)
		}
	}

	m.logger.Info("Queue pass finished",
		"workspace_id", workspaceID,
		"processed", processed,
		"failed", failed,
	)
	m.bus.PublishSyncCompleted(events.SyncCompleted{
		At:          time.Now(),
		WorkspaceID: workspaceID,
		Processed:   processed,
		Failed:      failed,
	})

	return nil
}

// errAwaitingResolution запись заблокирована неразрешенным конфликтом
var errAwaitingResolution = errors.New("change awaits conflict resolution")

// dequeueSent снимает отправленную запись с очереди. Удаление условное:
// подтвержден ровно тот payload, что ушел в сеть. Если за время вызова
// Enqueue успел схлопнуть в запись свежую правку, она остается в очереди
// и уйдет следующим проходом, а документ возвращается в Modified.
func (m *Manager) dequeueSent(ctx context.Context, sent *models.PendingChange) error {
	deleted, err := m.queue.DeleteChangeIfPayload(ctx, sent.ID, sent.Payload)
	if errors.Is(err, storage.ErrChangeNotFound) {
		// Запись уже снята другим путем (например, cancelUnsynced)
		return nil
	}
	if err != nil {
		return err
	}

	if !deleted {
		m.logger.Debug("Change re-coalesced during send, kept for next pass",
			"entity_id", sent.EntityID,
			"operation", string(sent.Operation),
		)
		m.markModified(ctx, sent)
	}
	return nil
}

// sortChanges упорядочивает записи: приоритет, затем порядок операций
// внутри сущности, затем время постановки
func sortChanges(changes []*models.PendingChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.EntityID == b.EntityID && a.Operation != b.Operation {
			return opRank[a.Operation] < opRank[b.Operation]
		}
		return a.EnqueuedAt.Before(b.EnqueuedAt)
	})
}

// applyChange отправляет одно изменение на сервер и выполняет локальную
// бухгалтерию успеха. Возвращаемая ошибка классифицируется вызывающим.
func (m *Manager) applyChange(ctx context.Context, token string, change *models.PendingChange) error {
	switch change.EntityType {
	case models.EntityDocument:
		return m.applyDocument(ctx, token, change)
	case models.EntityFolder:
		return m.applyFolder(ctx, token, change)
	case models.EntityWorkspace:
		return m.applyWorkspace(ctx, token, change)
	default:
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("unknown entity type %q", change.EntityType),
		}
	}
}

// applyDocument обрабатывает изменение документа
func (m *Manager) applyDocument(ctx context.Context, token string, change *models.PendingChange) error {
	doc, err := m.docs.GetDocument(ctx, change.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			// Сущность исчезла локально, запись осиротела
			return &apiclient.Error{
				Kind:    apiclient.KindValidation,
				Message: "document no longer exists locally",
			}
		}
		return fmt.Errorf("load document: %w", err)
	}

	if doc.SyncStatus == models.SyncStatusConflict {
		return errAwaitingResolution
	}

	// Документ уходит в сеть: на время вызова статус Syncing
	prev := doc.SyncStatus
	m.setStatus(ctx, doc, models.SyncStatusSyncing)

	switch change.Operation {
	case models.OpCreate:
		err = m.createDocument(ctx, token, change, doc)
	case models.OpUpdate:
		err = m.updateDocument(ctx, token, change, doc)
	case models.OpDelete:
		err = m.deleteDocument(ctx, token, change, doc)
	default:
		err = &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("unknown operation %q", change.Operation),
		}
	}

	if err != nil {
		m.revertSyncing(ctx, change.EntityID, prev)
	}
	return err
}

// setStatus сохраняет статус документа и публикует StatusChanged
func (m *Manager) setStatus(ctx context.Context, doc *models.DocumentMeta, status models.SyncStatus) {
	doc.SyncStatus = status
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		m.logger.Warn("Failed to update document status", "entity_id", doc.LocalID, "error", err)
		return
	}

	m.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   status,
	})
}

// revertSyncing возвращает документу прежний статус после неуспешной
// отправки. Статус, уже переставленный детектором конфликтов или
// параллельной правкой, не трогается.
func (m *Manager) revertSyncing(ctx context.Context, entityID string, prev models.SyncStatus) {
	doc, err := m.docs.GetDocument(ctx, entityID)
	if err != nil {
		return
	}
	if doc.SyncStatus != models.SyncStatusSyncing {
		return
	}
	m.setStatus(ctx, doc, prev)
}

// createDocument отправляет create. Канонический id в запросе служит
// idempotency key: повтор после сетевого сбоя вернет тот же документ.
func (m *Manager) createDocument(ctx context.Context, token string, change *models.PendingChange, doc *models.DocumentMeta) error {
	var req api.DocumentCreateRequest
	if err := json.Unmarshal(change.Payload, &req); err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("malformed create payload: %v", err),
		}
	}

	canonical, err := m.ids.Resolve(ctx, change.EntityID)
	if err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("resolve entity id: %v", err),
		}
	}
	req.ID = canonical

	remote, err := m.apiClient.CreateDocument(ctx, token, req)
	if err != nil {
		return err
	}

	return m.confirmDocumentSync(ctx, doc, remote)
}

// updateDocument отправляет update с optimistic concurrency check.
// Ожидаемая версия берется из локальной записи в момент отправки:
// payload мог быть поставлен в очередь до того, как другая операция
// сдвинула подтвержденную версию.
func (m *Manager) updateDocument(ctx context.Context, token string, change *models.PendingChange, doc *models.DocumentMeta) error {
	if doc.RemoteID == "" {
		// Документ еще не создан на сервере: update без create
		// превращается в create
		return m.convertToCreate(ctx, token, change, doc)
	}

	var req api.DocumentUpdateRequest
	if err := json.Unmarshal(change.Payload, &req); err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("malformed update payload: %v", err),
		}
	}
	expected := doc.Version
	req.ExpectedVersion = &expected

	remote, err := m.apiClient.UpdateDocument(ctx, token, doc.RemoteID, req)
	if apiclient.IsNotFound(err) {
		// Сервер потерял документ (или мы потеряли сервер):
		// локальная копия полная, пересоздаем
		m.logger.Warn("Document missing on server, converting update to create",
			"entity_id", change.EntityID,
		)
		return m.convertToCreate(ctx, token, change, doc)
	}
	if err != nil {
		if resolved, handled := m.handleDocumentConflict(ctx, change, err); handled {
			return resolved
		}
		return err
	}

	return m.confirmDocumentSync(ctx, doc, remote)
}

// deleteDocument отправляет soft delete
func (m *Manager) deleteDocument(ctx context.Context, token string, change *models.PendingChange, doc *models.DocumentMeta) error {
	if doc.RemoteID == "" {
		// Enqueue гасит такие записи, но запись могла пережить рестарт
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: "delete of never-synced document",
		}
	}

	expected := doc.Version
	err := m.apiClient.DeleteDocument(ctx, token, doc.RemoteID, &expected)
	if apiclient.IsNotFound(err) {
		// Уже удален другой стороной, цель достигнута
		err = nil
	}
	if err != nil {
		if resolved, handled := m.handleDocumentConflict(ctx, change, err); handled {
			return resolved
		}
		return err
	}

	doc.Deleted = true
	doc.SyncStatus = models.SyncStatusSynced
	now := time.Now()
	doc.LastSyncedAt = &now
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("record document deletion: %w", err)
	}

	m.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   models.SyncStatusSynced,
	})
	return nil
}

// convertToCreate пересобирает create запрос из локальной записи
func (m *Manager) convertToCreate(ctx context.Context, token string, change *models.PendingChange, doc *models.DocumentMeta) error {
	canonical, err := m.ids.Resolve(ctx, change.EntityID)
	if err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("resolve entity id: %v", err),
		}
	}

	remote, err := m.apiClient.CreateDocument(ctx, token, api.DocumentCreateRequest{
		ID:          canonical,
		WorkspaceID: doc.WorkspaceID,
		FolderID:    doc.FolderID,
		Title:       doc.Title,
		Content:     doc.Content,
		StorageMode: string(models.SyncModeCloud),
		CRDTState:   doc.CRDTState,
	})
	if err != nil {
		return err
	}

	return m.confirmDocumentSync(ctx, doc, remote)
}

// handleDocumentConflict передает 409 детектору конфликтов.
// Возвращает (errAwaitingResolution, true) для настоящего конфликта,
// (nil-или-ошибка, true) для ложного, (nil, false) если ошибка не 409.
func (m *Manager) handleDocumentConflict(ctx context.Context, change *models.PendingChange, err error) (error, bool) {
	resp, ok := apiclient.AsConflict(err)
	if !ok {
		return nil, false
	}

	conflict, derr := m.detector.Detect(ctx, change.EntityID, resp)
	if derr != nil {
		return fmt.Errorf("conflict detection: %w", derr), true
	}
	if conflict == nil {
		// Ложный конфликт: версия принята, следующий проход отправит
		// payload уже с новой ожидаемой версией
		return &apiclient.Error{
			Kind:    apiclient.KindTransient,
			Message: "remote version adopted, retry scheduled",
		}, true
	}

	return errAwaitingResolution, true
}

// confirmDocumentSync фиксирует подтвержденное сервером состояние
func (m *Manager) confirmDocumentSync(ctx context.Context, doc *models.DocumentMeta, remote *api.Document) error {
	if doc.RemoteID == "" {
		if err := m.ids.RecordMapping(ctx, doc.LocalID, remote.ID); err != nil {
			return fmt.Errorf("record id mapping: %w", err)
		}
	}

	doc.RemoteID = remote.ID
	doc.Version = remote.Version
	doc.SyncStatus = models.SyncStatusSynced
	if doc.SyncMode == models.SyncModePendingSync {
		doc.SyncMode = models.SyncModeCloud
	}
	now := time.Now()
	doc.LastSyncedAt = &now

	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}

	m.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   models.SyncStatusSynced,
	})
	return nil
}

// backoff уводит неуспешную запись в экспоненциальную задержку
func (m *Manager) backoff(ctx context.Context, change *models.PendingChange, cause error) {
	change.RetryCount++
	change.LastError = cause.Error()

	delay := m.cfg.BackoffBase << (change.RetryCount - 1)
	if delay > m.cfg.BackoffMax || delay <= 0 {
		delay = m.cfg.BackoffMax
	}
	change.NextRetryAt = time.Now().Add(delay)

	if err := m.queue.SaveChange(ctx, change); err != nil {
		m.logger.Error("Failed to persist retry state", "entity_id", change.EntityID, "error", err)
		return
	}

	if change.RetryCount >= m.cfg.MaxRetries {
		m.logger.Error("Change exhausted retries",
			"entity_id", change.EntityID,
			"operation", string(change.Operation),
			"retry_count", change.RetryCount,
			"error", cause,
		)
		m.markError(ctx, change)
		return
	}

	m.logger.Warn("Change deferred",
		"entity_id", change.EntityID,
		"operation", string(change.Operation),
		"retry_count", change.RetryCount,
		"next_retry_at", change.NextRetryAt,
		"error", cause,
	)
}

// markError переводит документ в статус Error
func (m *Manager) markError(ctx context.Context, change *models.PendingChange) {
	if change.EntityType != models.EntityDocument {
		return
	}

	doc, err := m.docs.GetDocument(ctx, change.EntityID)
	if err != nil {
		return
	}

	doc.SyncStatus = models.SyncStatusError
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		m.logger.Warn("Failed to mark document errored", "entity_id", change.EntityID, "error", err)
		return
	}

	m.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: change.EntityID,
		Status:   models.SyncStatusError,
	})
}
