// Package workspaces реализует операции над workspace и папками
// на клиенте. Как и правки документов, структурные изменения пишутся
// локально и встают в durable очередь одним синхронным вызовом.
package workspaces

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// Service предоставляет операции над workspace и папками
type Service struct {
	store  storage.WorkspaceStorage
	meta   storage.MetaStorage
	queue  *syncqueue.Manager
	logger *slog.Logger
}

// NewService создает новый сервис workspace
func NewService(
	store storage.WorkspaceStorage,
	meta storage.MetaStorage,
	queue *syncqueue.Manager,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		meta:   meta,
		queue:  queue,
		logger: logger,
	}
}

// CreateWorkspace создает workspace локально и ставит create в очередь
func (s *Service) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid workspace name: %w", err)
	}

	now := time.Now()
	ws := &models.Workspace{
		CreatedAt: now,
		UpdatedAt: now,
		LocalID:   idmap.NewLocalID(models.EntityWorkspace, uuid.NewString()),
		Name:      name,
	}

	if err := s.store.SaveWorkspace(ctx, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}

	payload, err := json.Marshal(api.WorkspaceCreateRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("marshal create payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: ws.LocalID,
		EntityType:  models.EntityWorkspace,
		EntityID:    ws.LocalID,
		Operation:   models.OpCreate,
		Payload:     payload,
		Priority:    models.PriorityCritical,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue create: %w", err)
	}

	return ws, nil
}

// RenameWorkspace меняет имя workspace
func (s *Service) RenameWorkspace(ctx context.Context, localID, name string) error {
	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("invalid workspace name: %w", err)
	}

	ws, err := s.store.GetWorkspace(ctx, localID)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	ws.Name = name
	ws.UpdatedAt = time.Now()
	if err := s.store.SaveWorkspace(ctx, ws); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}

	payload, err := json.Marshal(api.WorkspaceUpdateRequest{Name: &name})
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: localID,
		EntityType:  models.EntityWorkspace,
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

// ListWorkspaces возвращает все workspace
func (s *Service) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	return s.store.ListWorkspaces(ctx)
}

// Время, отведенное на выталкивание очереди уходящего workspace
const switchDrainTimeout = 15 * time.Second

// SetActive сохраняет выбранный workspace. Очередь уходящего workspace
// выталкивается до переключения: его записи не должны ждать, пока
// пользователь вернется. Неуспех выталкивания переключение не блокирует,
// остаток уйдет фоновыми проходами.
func (s *Service) SetActive(ctx context.Context, localID string) error {
	if _, err := s.store.GetWorkspace(ctx, localID); err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	current, err := s.meta.GetActiveWorkspace(ctx)
	if err == nil && current != "" && current != localID {
		if err := s.queue.DrainWorkspace(ctx, current, switchDrainTimeout); err != nil {
			s.logger.Warn("Outgoing workspace drain failed",
				"workspace_id", current,
				"error", err,
			)
		}
	}

	return s.meta.SaveActiveWorkspace(ctx, localID)
}

// Active возвращает выбранный workspace, пустая строка если не выбран
func (s *Service) Active(ctx context.Context) (string, error) {
	return s.meta.GetActiveWorkspace(ctx)
}

// CreateFolder создает папку локально и ставит create в очередь
func (s *Service) CreateFolder(ctx context.Context, workspaceID, parentID, name string) (*models.Folder, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid folder name: %w", err)
	}

	now := time.Now()
	folder := &models.Folder{
		CreatedAt:   now,
		UpdatedAt:   now,
		LocalID:     idmap.NewLocalID(models.EntityFolder, uuid.NewString()),
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        name,
	}

	if err := s.store.SaveFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("save folder: %w", err)
	}

	payload, err := json.Marshal(api.FolderCreateRequest{
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        name,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal create payload: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: workspaceID,
		EntityType:  models.EntityFolder,
		EntityID:    folder.LocalID,
		Operation:   models.OpCreate,
		Payload:     payload,
		Priority:    models.PriorityCritical,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue create: %w", err)
	}

	return folder, nil
}

// DeleteFolder помечает папку удаленной и ставит delete в очередь
func (s *Service) DeleteFolder(ctx context.Context, localID string) error {
	folder, err := s.store.GetFolder(ctx, localID)
	if err != nil {
		return fmt.Errorf("load folder: %w", err)
	}

	err = s.queue.Enqueue(ctx, &models.PendingChange{
		WorkspaceID: folder.WorkspaceID,
		EntityType:  models.EntityFolder,
		EntityID:    localID,
		Operation:   models.OpDelete,
		Priority:    models.PriorityCritical,
	})
	if err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}

	return nil
}

// ListFolders возвращает папки workspace
func (s *Service) ListFolders(ctx context.Context, workspaceID string) ([]*models.Folder, error) {
	return s.store.ListFolders(ctx, workspaceID)
}
