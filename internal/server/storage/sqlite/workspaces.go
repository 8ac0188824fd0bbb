package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/notesync/internal/server/storage"
)

// CreateWorkspace stores a new workspace (idempotent by id)
func (s *Storage) CreateWorkspace(ctx context.Context, ws *storage.Workspace) (*storage.Workspace, error) {
	existing, err := s.GetWorkspace(ctx, ws.OwnerID, ws.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrWorkspaceNotFound) {
		return nil, err
	}

	now := time.Now()
	stored := *ws
	stored.Version = 1
	stored.Deleted = false
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query := `
		INSERT INTO workspaces (id, owner_id, name, version, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		stored.ID,
		stored.OwnerID,
		stored.Name,
		stored.Version,
		stored.Deleted,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert workspace: %w", err)
	}

	return &stored, nil
}

// GetWorkspace retrieves a workspace by id scoped to owner
func (s *Storage) GetWorkspace(ctx context.Context, ownerID, id string) (*storage.Workspace, error) {
	query := `
		SELECT id, owner_id, name, version, deleted, created_at, updated_at
		FROM workspaces
		WHERE owner_id = ? AND id = ?
	`

	ws := &storage.Workspace{}
	err := s.db.QueryRowContext(ctx, query, ownerID, id).Scan(
		&ws.ID,
		&ws.OwnerID,
		&ws.Name,
		&ws.Version,
		&ws.Deleted,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return ws, nil
}

// ListWorkspaces returns all workspaces of a user
func (s *Storage) ListWorkspaces(ctx context.Context, ownerID string) ([]*storage.Workspace, error) {
	query := `
		SELECT id, owner_id, name, version, deleted, created_at, updated_at
		FROM workspaces
		WHERE owner_id = ? AND deleted = 0
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*storage.Workspace
	for rows.Next() {
		ws := &storage.Workspace{}
		err := rows.Scan(
			&ws.ID,
			&ws.OwnerID,
			&ws.Name,
			&ws.Version,
			&ws.Deleted,
			&ws.CreatedAt,
			&ws.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workspaces: %w", err)
	}

	return workspaces, nil
}

// UpdateWorkspace renames a workspace with optimistic locking
func (s *Storage) UpdateWorkspace(ctx context.Context, ownerID, id string, name *string, expectedVersion int64) (*storage.Workspace, error) {
	ws, err := s.GetWorkspace(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if ws.Deleted {
		return nil, storage.ErrWorkspaceNotFound
	}

	if expectedVersion != 0 && expectedVersion != ws.Version {
		return nil, storage.ErrVersionMismatch
	}

	if name != nil {
		ws.Name = *name
	}
	ws.Version++
	ws.UpdatedAt = time.Now()

	query := `
		UPDATE workspaces
		SET name = ?, version = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	if _, err := s.db.ExecContext(ctx, query, ws.Name, ws.Version, ws.UpdatedAt, ownerID, id); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return ws, nil
}

// CreateFolder stores a new folder (idempotent by id)
func (s *Storage) CreateFolder(ctx context.Context, folder *storage.Folder) (*storage.Folder, error) {
	existing, err := s.GetFolder(ctx, folder.OwnerID, folder.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrFolderNotFound) {
		return nil, err
	}

	now := time.Now()
	stored := *folder
	stored.Version = 1
	stored.Deleted = false
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query := `
		INSERT INTO folders (id, owner_id, workspace_id, parent_id, name, version, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		stored.ID,
		stored.OwnerID,
		stored.WorkspaceID,
		stored.ParentID,
		stored.Name,
		stored.Version,
		stored.Deleted,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder: %w", err)
	}

	return &stored, nil
}

// GetFolder retrieves a folder by id scoped to owner
func (s *Storage) GetFolder(ctx context.Context, ownerID, id string) (*storage.Folder, error) {
	query := `
		SELECT id, owner_id, workspace_id, parent_id, name, version, deleted, created_at, updated_at
		FROM folders
		WHERE owner_id = ? AND id = ?
	`

	folder := &storage.Folder{}
	err := s.db.QueryRowContext(ctx, query, ownerID, id).Scan(
		&folder.ID,
		&folder.OwnerID,
		&folder.WorkspaceID,
		&folder.ParentID,
		&folder.Name,
		&folder.Version,
		&folder.Deleted,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return folder, nil
}

// ListFolders returns folders of a workspace
func (s *Storage) ListFolders(ctx context.Context, ownerID, workspaceID string) ([]*storage.Folder, error) {
	query := `
		SELECT id, owner_id, workspace_id, parent_id, name, version, deleted, created_at, updated_at
		FROM folders
		WHERE owner_id = ? AND workspace_id = ? AND deleted = 0
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*storage.Folder
	for rows.Next() {
		folder := &storage.Folder{}
		err := rows.Scan(
			&folder.ID,
			&folder.OwnerID,
			&folder.WorkspaceID,
			&folder.ParentID,
			&folder.Name,
			&folder.Version,
			&folder.Deleted,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return folders, nil
}

// UpdateFolder updates a folder with optimistic locking
func (s *Storage) UpdateFolder(ctx context.Context, ownerID, id string, name, parentID *string, expectedVersion int64) (*storage.Folder, error) {
	folder, err := s.GetFolder(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if folder.Deleted {
		return nil, storage.ErrFolderNotFound
	}

	if expectedVersion != 0 && expectedVersion != folder.Version {
		return nil, storage.ErrVersionMismatch
	}

	if name != nil {
		folder.Name = *name
	}
	if parentID != nil {
		folder.ParentID = *parentID
	}
	folder.Version++
	folder.UpdatedAt = time.Now()

	query := `
		UPDATE folders
		SET name = ?, parent_id = ?, version = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	_, err = s.db.ExecContext(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.Version,
		folder.UpdatedAt,
		ownerID,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	return folder, nil
}

// DeleteFolder marks a folder deleted with optimistic locking
func (s *Storage) DeleteFolder(ctx context.Context, ownerID, id string, expectedVersion int64) error {
	folder, err := s.GetFolder(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if folder.Deleted {
		return nil
	}

	if expectedVersion != 0 && expectedVersion != folder.Version {
		return storage.ErrVersionMismatch
	}

	query := `
		UPDATE folders
		SET deleted = 1, version = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	if _, err := s.db.ExecContext(ctx, query, folder.Version+1, time.Now(), ownerID, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	return nil
}
