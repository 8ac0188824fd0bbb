package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// Конфликты метаданных (имя папки, размещение) не доходят до
// пользователя: 409 здесь означает лишь, что подтвержденная версия
// отстала. Локальная запись принимает серверную версию, и следующий
// проход переигрывает изменение поверх нее — last write wins.

// applyFolder обрабатывает изменение папки
func (m *Manager) applyFolder(ctx context.Context, token string, change *models.PendingChange) error {
	folder, err := m.workspaces.GetFolder(ctx, change.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrFolderNotFound) {
			return &apiclient.Error{
				Kind:    apiclient.KindValidation,
				Message: "folder no longer exists locally",
			}
		}
		return fmt.Errorf("load folder: %w", err)
	}

	switch change.Operation {
	case models.OpCreate:
		return m.createFolder(ctx, token, change, folder)
	case models.OpUpdate:
		return m.updateFolder(ctx, token, change, folder)
	case models.OpDelete:
		return m.deleteFolder(ctx, token, change, folder)
	default:
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("unknown operation %q", change.Operation),
		}
	}
}

func (m *Manager) createFolder(ctx context.Context, token string, change *models.PendingChange, folder *models.Folder) error {
	var req api.FolderCreateRequest
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

	remote, err := m.apiClient.CreateFolder(ctx, token, req)
	if err != nil {
		return err
	}

	if folder.RemoteID == "" {
		if err := m.ids.RecordMapping(ctx, folder.LocalID, remote.ID); err != nil {
			return fmt.Errorf("record id mapping: %w", err)
		}
	}
	folder.RemoteID = remote.ID
	folder.Version = remote.Version
	folder.UpdatedAt = time.Now()

	if err := m.workspaces.SaveFolder(ctx, folder); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}
	return nil
}

func (m *Manager) updateFolder(ctx context.Context, token string, change *models.PendingChange, folder *models.Folder) error {
	if folder.RemoteID == "" {
		return m.createFolderFromLocal(ctx, token, folder)
	}

	var req api.FolderUpdateRequest
	if err := json.Unmarshal(change.Payload, &req); err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("malformed update payload: %v", err),
		}
	}
	expected := folder.Version
	req.ExpectedVersion = &expected

	remote, err := m.apiClient.UpdateFolder(ctx, token, folder.RemoteID, req)
	if apiclient.IsNotFound(err) {
		return m.createFolderFromLocal(ctx, token, folder)
	}
	if err != nil {
		if resp, ok := apiclient.AsConflict(err); ok {
			return m.adoptFolderVersion(ctx, folder, resp.CurrentVersion)
		}
		return err
	}

	folder.Version = remote.Version
	folder.UpdatedAt = time.Now()
	if err := m.workspaces.SaveFolder(ctx, folder); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}
	return nil
}

func (m *Manager) deleteFolder(ctx context.Context, token string, change *models.PendingChange, folder *models.Folder) error {
	if folder.RemoteID != "" {
		expected := folder.Version
		err := m.apiClient.DeleteFolder(ctx, token, folder.RemoteID, &expected)
		if err != nil && !apiclient.IsNotFound(err) {
			if resp, ok := apiclient.AsConflict(err); ok {
				return m.adoptFolderVersion(ctx, folder, resp.CurrentVersion)
			}
			return err
		}
	}

	if err := m.workspaces.DeleteFolder(ctx, change.EntityID); err != nil && !errors.Is(err, storage.ErrFolderNotFound) {
		return fmt.Errorf("delete local folder: %w", err)
	}
	return nil
}

// createFolderFromLocal пересобирает create из локальной записи
func (m *Manager) createFolderFromLocal(ctx context.Context, token string, folder *models.Folder) error {
	canonical, err := m.ids.Resolve(ctx, folder.LocalID)
	if err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("resolve entity id: %v", err),
		}
	}

	parentID := ""
	if folder.ParentID != "" {
		parentID, err = m.ids.Resolve(ctx, folder.ParentID)
		if err != nil {
			return &apiclient.Error{
				Kind:    apiclient.KindValidation,
				Message: fmt.Sprintf("resolve parent id: %v", err),
			}
		}
	}

	workspaceID, err := m.ids.Resolve(ctx, folder.WorkspaceID)
	if err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("resolve workspace id: %v", err),
		}
	}

	remote, rerr := m.apiClient.CreateFolder(ctx, token, api.FolderCreateRequest{
		ID:          canonical,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        folder.Name,
	})
	if rerr != nil {
		return rerr
	}

	if folder.RemoteID == "" {
		if err := m.ids.RecordMapping(ctx, folder.LocalID, remote.ID); err != nil {
			return fmt.Errorf("record id mapping: %w", err)
		}
	}
	folder.RemoteID = remote.ID
	folder.Version = remote.Version
	folder.UpdatedAt = time.Now()

	if err := m.workspaces.SaveFolder(ctx, folder); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}
	return nil
}

// adoptFolderVersion принимает серверную версию после 409 и оставляет
// запись в очереди на переигрывание
func (m *Manager) adoptFolderVersion(ctx context.Context, folder *models.Folder, version int64) error {
	folder.Version = version
	if err := m.workspaces.SaveFolder(ctx, folder); err != nil {
		return fmt.Errorf("adopt remote version: %w", err)
	}

	return &apiclient.Error{
		Kind:    apiclient.KindTransient,
		Message: "remote version adopted, retry scheduled",
	}
}

// applyWorkspace обрабатывает изменение workspace.
// Удаление workspace через очередь не поддерживается: сервер его
// не предоставляет, локальные записи удаляются напрямую.
func (m *Manager) applyWorkspace(ctx context.Context, token string, change *models.PendingChange) error {
	ws, err := m.workspaces.GetWorkspace(ctx, change.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrWorkspaceNotFound) {
			return &apiclient.Error{
				Kind:    apiclient.KindValidation,
				Message: "workspace no longer exists locally",
			}
		}
		return fmt.Errorf("load workspace: %w", err)
	}

	switch change.Operation {
	case models.OpCreate:
		return m.createWorkspace(ctx, token, change, ws)
	case models.OpUpdate:
		return m.updateWorkspace(ctx, token, change, ws)
	default:
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("unsupported workspace operation %q", change.Operation),
		}
	}
}

func (m *Manager) createWorkspace(ctx context.Context, token string, change *models.PendingChange, ws *models.Workspace) error {
	var req api.WorkspaceCreateRequest
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

	remote, err := m.apiClient.CreateWorkspace(ctx, token, req)
	if err != nil {
		return err
	}

	if ws.RemoteID == "" {
		if err := m.ids.RecordMapping(ctx, ws.LocalID, remote.ID); err != nil {
			return fmt.Errorf("record id mapping: %w", err)
		}
	}
	ws.RemoteID = remote.ID
	ws.Version = remote.Version
	ws.UpdatedAt = time.Now()

	if err := m.workspaces.SaveWorkspace(ctx, ws); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}
	return nil
}

func (m *Manager) updateWorkspace(ctx context.Context, token string, change *models.PendingChange, ws *models.Workspace) error {
	if ws.RemoteID == "" {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: "update of never-synced workspace",
		}
	}

	var req api.WorkspaceUpdateRequest
	if err := json.Unmarshal(change.Payload, &req); err != nil {
		return &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: fmt.Sprintf("malformed update payload: %v", err),
		}
	}
	expected := ws.Version
	req.ExpectedVersion = &expected

	remote, err := m.apiClient.UpdateWorkspace(ctx, token, ws.RemoteID, req)
	if err != nil {
		if resp, ok := apiclient.AsConflict(err); ok {
			ws.Version = resp.CurrentVersion
			if serr := m.workspaces.SaveWorkspace(ctx, ws); serr != nil {
				return fmt.Errorf("adopt remote version: %w", serr)
			}
			return &apiclient.Error{
				Kind:    apiclient.KindTransient,
				Message: "remote version adopted, retry scheduled",
			}
		}
		return err
	}

	ws.Version = remote.Version
	ws.UpdatedAt = time.Now()
	if err := m.workspaces.SaveWorkspace(ctx, ws); err != nil {
		return fmt.Errorf("record confirmed sync: %w", err)
	}
	return nil
}
