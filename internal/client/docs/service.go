// Package docs реализует операции над документами на клиенте.
//
// Каждая правка делает ровно две вещи, и делает их синхронно:
// пишет данные в локальное хранилище и ставит изменение в durable
// очередь. Сетью занимается очередь, здесь ее нет.
package docs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/crdt"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// Service предоставляет операции над документами
type Service struct {
	store  storage.DocumentStorage
	queue  *syncqueue.Manager
	engine *crdt.Engine
	logger *slog.Logger
}

// NewService создает новый сервис документов
func NewService(
	store storage.DocumentStorage,
	queue *syncqueue.Manager,
	engine *crdt.Engine,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		queue:  queue,
		engine: engine,
		logger: logger,
	}
}

// Create создает документ локально и, для облачных режимов, ставит
// create в очередь. Создание видно пользователю мгновенно независимо
// от состояния сети.
func (s *Service) Create(ctx context.Context, workspaceID, folderID, title string, mode models.SyncMode) (*models.DocumentMeta, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return nil, fmt.Errorf("invalid title: %w", err)
	}

	now := time.Now()
	doc := &models.DocumentMeta{
		CreatedAt:   now,
		UpdatedAt:   now,
		LocalID:     idmap.NewLocalID(models.EntityDocument, uuid.NewString()),
		WorkspaceID: workspaceID,
		FolderID:    folderID,
		Title:       title,
		NodeID:      s.engine.Clock().NodeID(),
		SyncMode:    mode,
		SyncStatus:  models.SyncStatusLocal,
		Timestamp:   s.engine.Clock().Tick(),
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if mode == models.SyncModeLocalOnly {
		return doc, nil
	}

	payload, err := json.Marshal(api.DocumentCreateRequest{
		WorkspaceID: workspaceID,
		FolderID:    folderID,
		Title:       title,
		StorageMode: string(models.SyncModeCloud),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal create payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: workspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    doc.LocalID,
		Operation:   models.OpCreate,
		Payload:     payload,
		Priority:    models.PriorityCritical, // структурное действие пользователя
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue create: %w", err)
	}

	return doc, nil
}

// Open загружает текст документа в движок и возвращает его.
// Гидратация срабатывает только для пустого документа: набранный
// в движке текст снапшот не перезаписывает.
func (s *Service) Open(ctx context.Context, localID string) (string, error) {
	doc, err := s.store.GetDocument(ctx, localID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}

	err = s.engine.Hydrate(localID, doc.CRDTState, doc.Content)
	switch {
	case err == nil:
	case errors.Is(err, crdt.ErrDocumentNotEmpty), errors.Is(err, crdt.ErrSessionAttached):
		// Документ уже живет в движке, текущее состояние главнее
	case errors.Is(err, crdt.ErrNoSource):
		// Новый пустой документ
	default:
		return "", fmt.Errorf("hydrate document: %w", err)
	}

	return s.engine.Text(localID), nil
}

// SetText применяет правку текста: движок, хранилище и очередь
// обновляются одним вызовом
func (s *Service) SetText(ctx context.Context, localID, text string) error {
	doc, err := s.store.GetDocument(ctx, localID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	s.engine.SetText(localID, text)

	snapshot, err := s.engine.Encode(localID)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	doc.Content = text
	doc.ContentDigest = digest(text)
	doc.CRDTState = snapshot
	doc.UpdatedAt = time.Now()
	doc.Timestamp = s.engine.Clock().Tick()
	doc.NodeID = s.engine.Clock().NodeID()

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if doc.SyncMode == models.SyncModeLocalOnly {
		return nil
	}

	payload, err := json.Marshal(api.DocumentUpdateRequest{
		Content:   &doc.Content,
		CRDTState: snapshot,
	})
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: doc.WorkspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    localID,
		Operation:   models.OpUpdate,
		Payload:     payload,
		Priority:    models.PriorityNormal, // автосохранение контента
	})
	if err != nil {
		return fmt.Errorf("enqueue update: %w", err)
	}

	return nil
}

// Rename меняет заголовок документа
func (s *Service) Rename(ctx context.Context, localID, title string) error {
	if err := validation.ValidateTitle(title); err != nil {
		return fmt.Errorf("invalid title: %w", err)
	}

	doc, err := s.store.GetDocument(ctx, localID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	doc.Title = title
	doc.UpdatedAt = time.Now()
	doc.Timestamp = s.engine.Clock().Tick()
	doc.NodeID = s.engine.Clock().NodeID()

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if doc.SyncMode == models.SyncModeLocalOnly {
		return nil
	}

	payload, err := json.Marshal(api.DocumentUpdateRequest{
		Title: &doc.Title,
	})
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: doc.WorkspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    localID,
		Operation:   models.OpUpdate,
		Payload:     payload,
		Priority:    models.PriorityCritical,
	})
	if err != nil {
		return fmt.Errorf("enqueue update: %w", err)
	}

	return nil
}

// Delete помечает документ удаленным и ставит delete в очередь.
// Для никогда не синхронизированного документа очередь гасит запись
// и удаляет документ локально сразу.
func (s *Service) Delete(ctx context.Context, localID string) error {
	doc, err := s.store.GetDocument(ctx, localID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if doc.SyncMode == models.SyncModeLocalOnly {
		s.engine.Drop(localID)
		if err := s.store.DeleteDocument(ctx, localID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: doc.WorkspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    localID,
		Operation:   models.OpDelete,
		Priority:    models.PriorityCritical,
	})
	if err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}

	s.engine.Drop(localID)
	return nil
}

// EnableCloudSync переводит LocalOnly документ в облачный режим
// и ставит его первый create в очередь
func (s *Service) EnableCloudSync(ctx context.Context, localID string) error {
	doc, err := s.store.GetDocument(ctx, localID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if doc.SyncMode != models.SyncModeLocalOnly {
		return nil
	}

	doc.SyncMode = models.SyncModePendingSync
	doc.UpdatedAt = time.Now()
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
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
		return fmt.Errorf("marshal create payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: doc.WorkspaceID,
		EntityType:  models.EntityDocument,
		EntityID:    localID,
		Operation:   models.OpCreate,
		Payload:     payload,
		Priority:    models.PriorityHigh,
	})
	if err != nil {
		return fmt.Errorf("enqueue create: %w", err)
	}

	return nil
}

// List возвращает неудаленные документы workspace
func (s *Service) List(ctx context.Context, workspaceID string) ([]*models.DocumentMeta, error) {
	all, err := s.store.ListDocuments(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*models.DocumentMeta, 0, len(all))
	for _, doc := range all {
		if doc.Deleted {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get возвращает документ по локальному id
func (s *Service) Get(ctx context.Context, localID string) (*models.DocumentMeta, error) {
	return s.store.GetDocument(ctx, localID)
}

// digest считает дайджест контента для быстрых сравнений
func digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
