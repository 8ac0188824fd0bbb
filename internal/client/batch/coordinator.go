// Package batch реализует пакетную синхронизацию документов workspace.
//
// Вместо N последовательных HTTP вызовов накопленная очередь workspace
// уходит одним batch запросом. Сервер применяет операции в порядке
// create → update → delete и возвращает результат по каждой операции;
// клиент сопоставляет результаты по своим client_id и разбирает их
// той же логикой, что и одиночные вызовы: успех подтверждает версию,
// конфликт уходит детектору.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// Coordinator собирает очередь workspace в batch запросы
type Coordinator struct {
	docs      storage.DocumentStorage
	queue     storage.QueueStorage
	ids       *idmap.Normalizer
	apiClient apiclient.ClientAPI
	detector  syncqueue.ConflictDetector
	bus       *events.Bus
	logger    *slog.Logger
	token     syncqueue.TokenSource
}

// NewCoordinator creates a new batch coordinator
func NewCoordinator(
	docs storage.DocumentStorage,
	queue storage.QueueStorage,
	ids *idmap.Normalizer,
	apiClient apiclient.ClientAPI,
	detector syncqueue.ConflictDetector,
	bus *events.Bus,
	token syncqueue.TokenSource,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		docs:      docs,
		queue:     queue,
		ids:       ids,
		apiClient: apiClient,
		detector:  detector,
		bus:       bus,
		token:     token,
		logger:    logger,
	}
}

// SyncBatch выталкивает документные записи очереди workspace пакетами.
//
// atomic=true просит сервер применить все или ничего: любой конфликт
// откатывает пакет целиком, очередь остается нетронутой до разрешения.
// atomic=false применяет независимо, конфликтные операции разбираются
// поштучно.
func (c *Coordinator) SyncBatch(ctx context.Context, workspaceID string, atomic bool) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", syncqueue.ErrNotAuthenticated, err)
	}

	changes, err := c.queue.ListChanges(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("list queued changes: %w", err)
	}

	ops, byClientID, err := c.buildOperations(ctx, changes)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	remoteWorkspaceID, err := c.ids.Resolve(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("resolve workspace id: %w", err)
	}

	for start := 0; start < len(ops); start += api.BatchMaxOperations {
		end := start + api.BatchMaxOperations
		if end > len(ops) {
			end = len(ops)
		}

		resp, err := c.apiClient.Batch(ctx, token, api.BatchRequest{
			WorkspaceID: remoteWorkspaceID,
			Atomic:      atomic,
			Operations:  ops[start:end],
		})
		if err != nil {
			if atomic && apiclient.IsConflict(err) {
				// Atomic пакет откачен целиком, очередь не тронута
				c.logger.Warn("Atomic batch rejected, queue left intact",
					"workspace_id", workspaceID,
				)
				return err
			}
			return fmt.Errorf("batch request: %w", err)
		}

		c.logger.Info("Batch applied",
			"workspace_id", workspaceID,
			"total", resp.Total,
			"successful", resp.Successful,
			"failed", resp.Failed,
			"server_ms", resp.ProcessingTimeMS,
		)

		if err := c.applyResults(ctx, resp.Results, byClientID); err != nil {
			return err
		}
	}

	return nil
}

// buildOperations переводит документные записи очереди в batch операции.
// client_id операции — это id записи очереди: по нему результат
// находит свою запись.
func (c *Coordinator) buildOperations(
	ctx context.Context,
	changes []*models.PendingChange,
) ([]api.BatchOperation, map[string]*models.PendingChange, error) {
	var ops []api.BatchOperation
	byClientID := make(map[string]*models.PendingChange)

	for _, change := range changes {
		if change.EntityType != models.EntityDocument {
			continue
		}
		if change.NextRetryAt.After(time.Now()) {
			continue
		}

		doc, err := c.docs.GetDocument(ctx, change.EntityID)
		if err != nil {
			if errors.Is(err, storage.ErrDocumentNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("load document: %w", err)
		}
		if doc.SyncStatus == models.SyncStatusConflict {
			continue
		}

		op, err := c.buildOperation(ctx, change, doc)
		if err != nil {
			c.logger.Error("Skipping malformed queue entry",
				"entity_id", change.EntityID,
				"error", err,
			)
			continue
		}

		ops = append(ops, *op)
		byClientID[change.ID] = change
	}

	return ops, byClientID, nil
}

func (c *Coordinator) buildOperation(
	ctx context.Context,
	change *models.PendingChange,
	doc *models.DocumentMeta,
) (*api.BatchOperation, error) {
	switch change.Operation {
	case models.OpCreate:
		var req api.DocumentCreateRequest
		if err := json.Unmarshal(change.Payload, &req); err != nil {
			return nil, fmt.Errorf("malformed create payload: %w", err)
		}
		canonical, err := c.ids.Resolve(ctx, change.EntityID)
		if err != nil {
			return nil, fmt.Errorf("resolve entity id: %w", err)
		}
		req.ID = canonical

		return &api.BatchOperation{
			Operation: api.BatchOpCreate,
			ClientID:  change.ID,
			Data:      &req,
		}, nil

	case models.OpUpdate:
		if doc.RemoteID == "" {
			// Никогда не синхронизированный документ уходит как create
			canonical, err := c.ids.Resolve(ctx, change.EntityID)
			if err != nil {
				return nil, fmt.Errorf("resolve entity id: %w", err)
			}
			return &api.BatchOperation{
				Operation: api.BatchOpCreate,
				ClientID:  change.ID,
				Data: &api.DocumentCreateRequest{
					ID:          canonical,
					WorkspaceID: doc.WorkspaceID,
					FolderID:    doc.FolderID,
					Title:       doc.Title,
					Content:     doc.Content,
					StorageMode: string(models.SyncModeCloud),
					CRDTState:   doc.CRDTState,
				},
			}, nil
		}

		var req api.DocumentUpdateRequest
		if err := json.Unmarshal(change.Payload, &req); err != nil {
			return nil, fmt.Errorf("malformed update payload: %w", err)
		}
		expected := doc.Version
		req.ExpectedVersion = &expected

		return &api.BatchOperation{
			Operation:       api.BatchOpUpdate,
			ClientID:        change.ID,
			DocumentID:      doc.RemoteID,
			Update:          &req,
			ExpectedVersion: &expected,
		}, nil

	case models.OpDelete:
		if doc.RemoteID == "" {
			return nil, errors.New("delete of never-synced document")
		}
		expected := doc.Version

		return &api.BatchOperation{
			Operation:       api.BatchOpDelete,
			ClientID:        change.ID,
			DocumentID:      doc.RemoteID,
			ExpectedVersion: &expected,
		}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", change.Operation)
	}
}

// applyResults разбирает результаты пакета по записям очереди
func (c *Coordinator) applyResults(
	ctx context.Context,
	results []api.BatchResult,
	byClientID map[string]*models.PendingChange,
) error {
	for _, result := range results {
		change, ok := byClientID[result.ClientID]
		if !ok {
			c.logger.Warn("Batch result with unknown client_id", "client_id", result.ClientID)
			continue
		}

		switch result.Status {
		case api.BatchStatusSuccess:
			if err := c.confirmSuccess(ctx, change, &result); err != nil {
				return err
			}

		case api.BatchStatusConflict:
			if result.ConflictData == nil {
				c.logger.Error("Conflict result without conflict data", "client_id", result.ClientID)
				continue
			}
			if _, err := c.detector.Detect(ctx, change.EntityID, result.ConflictData); err != nil {
				return fmt.Errorf("conflict detection: %w", err)
			}

		case api.BatchStatusSkipped:
			// Atomic откат: запись остается в очереди как есть

		default:
			c.logger.Error("Batch operation failed",
				"entity_id", change.EntityID,
				"operation", string(change.Operation),
				"error", result.Error,
			)
		}
	}

	return nil
}

// confirmSuccess фиксирует подтвержденное состояние и снимает запись
// с очереди
func (c *Coordinator) confirmSuccess(ctx context.Context, change *models.PendingChange, result *api.BatchResult) error {
	doc, err := c.docs.GetDocument(ctx, change.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return c.queue.DeleteChange(ctx, change.ID)
		}
		return fmt.Errorf("load document: %w", err)
	}

	if change.Operation == models.OpDelete {
		doc.Deleted = true
	}

	if doc.RemoteID == "" && result.DocumentID != "" {
		if err := c.ids.RecordMapping(ctx, doc.LocalID, result.DocumentID); err != nil {
			return fmt.Errorf("record id mapping: %w", err)
		}
		doc.RemoteID = result.DocumentID
	}
	if result.Version > 0 {
		doc.Version = result.Version
	}
	if doc.SyncMode == models.SyncModePendingSync {
		doc.SyncMode = models.SyncModeCloud
	}
	now := time.Now()
	doc.LastSyncedAt = &now

	// Удаление условное: правка, схлопнутая в запись во время пакетного
	// запроса, остается в очереди, а документ остается Modified
	deleted, err := c.queue.DeleteChangeIfPayload(ctx, change.ID, change.Payload)
	if err != nil && !errors.Is(err, storage.ErrChangeNotFound) {
		return fmt.Errorf("dequeue applied change: %w", err)
	}

	doc.SyncStatus = models.SyncStatusSynced
	if err == nil && !deleted {
		c.logger.Debug("Change re-coalesced during batch, kept for next pass",
			"entity_id", change.EntityID,
		)
		doc.SyncStatus = models.SyncStatusModified
	}

	if err := c.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}

	c.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: doc.LocalID,
		Status:   doc.SyncStatus,
	})
	return nil
}

// ReconcileWorkspace ставит в очередь create для всех документов
// workspace, которые включили облачную синхронизацию, но еще ни разу
// не уходили на сервер. Вызывается после login: накопленные за offline
// период документы уезжают первым же batch проходом.
func (c *Coordinator) ReconcileWorkspace(ctx context.Context, workspaceID string, enqueue func(context.Context, *models.PendingChange) error) (int, error) {
	docs, err := c.docs.ListDocuments(ctx, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var enqueued int
	for _, doc := range docs {
		if doc.RemoteID != "" || doc.Deleted || doc.SyncMode == models.SyncModeLocalOnly {
			continue
		}

		payload, err := json.Marshal(api.DocumentCreateRequest{
			WorkspaceID: doc.WorkspaceID,
			FolderID:    doc.FolderID,
			Title:       doc.Title,
			Content:     doc.Content,
			StorageMode: string(models.SyncModeCloud),
			CRDTState:   doc.CRDTState,
		})
		if err != nil {
			return enqueued, fmt.Errorf("marshal create payload: %w", err)
		}

		err = enqueue(ctx, &models.PendingChange{
			WorkspaceID: doc.WorkspaceID,
			EntityType:  models.EntityDocument,
			EntityID:    doc.LocalID,
			Operation:   models.OpCreate,
			Payload:     payload,
			Priority:    models.PriorityHigh,
		})
		if err != nil {
			return enqueued, fmt.Errorf("enqueue create: %w", err)
		}
		enqueued++
	}

	if enqueued > 0 {
		c.logger.Info("Workspace reconciled", "workspace_id", workspaceID, "enqueued", enqueued)
	}
	return enqueued, nil
}
