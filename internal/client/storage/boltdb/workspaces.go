package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// SaveWorkspace stores or updates a workspace record
func (s *Storage) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketWorkspaces).Put([]byte(ws.LocalID), data)
	})
}

// GetWorkspace retrieves a workspace by local ID
func (s *Storage) GetWorkspace(ctx context.Context, localID string) (*models.Workspace, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ws *models.Workspace

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketWorkspaces).Get([]byte(localID))
		if data == nil {
			return storage.ErrWorkspaceNotFound
		}

		ws = &models.Workspace{}
		if err := json.Unmarshal(data, ws); err != nil {
			return fmt.Errorf("failed to unmarshal workspace: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return ws, nil
}

// ListWorkspaces returns all workspaces
func (s *Storage) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var workspaces []*models.Workspace

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketWorkspaces).ForEach(func(k, v []byte) error {
			var ws models.Workspace
			if err := json.Unmarshal(v, &ws); err != nil {
				return fmt.Errorf("failed to unmarshal workspace: %w", err)
			}
			workspaces = append(workspaces, &ws)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	return workspaces, nil
}

// SaveFolder stores or updates a folder record
func (s *Storage) SaveFolder(ctx context.Context, folder *models.Folder) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(folder)
	if err != nil {
		return fmt.Errorf("failed to marshal folder: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFolders).Put([]byte(folder.LocalID), data)
	})
}

// GetFolder retrieves a folder by local ID
func (s *Storage) GetFolder(ctx context.Context, localID string) (*models.Folder, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var folder *models.Folder

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFolders).Get([]byte(localID))
		if data == nil {
			return storage.ErrFolderNotFound
		}

		folder = &models.Folder{}
		if err := json.Unmarshal(data, folder); err != nil {
			return fmt.Errorf("failed to unmarshal folder: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return folder, nil
}

// ListFolders returns all folders of a workspace
func (s *Storage) ListFolders(ctx context.Context, workspaceID string) ([]*models.Folder, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var folders []*models.Folder

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFolders).ForEach(func(k, v []byte) error {
			var folder models.Folder
			if err := json.Unmarshal(v, &folder); err != nil {
				return fmt.Errorf("failed to unmarshal folder: %w", err)
			}

			if workspaceID != "" && folder.WorkspaceID != workspaceID {
				return nil
			}

			folders = append(folders, &folder)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return folders, nil
}

// DeleteFolder removes a folder record
func (s *Storage) DeleteFolder(ctx context.Context, localID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketFolders)

		if bucket.Get([]byte(localID)) == nil {
			return storage.ErrFolderNotFound
		}

		return bucket.Delete([]byte(localID))
	})
}
