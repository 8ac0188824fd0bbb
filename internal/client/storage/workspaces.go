package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

// WorkspaceStorage defines interface for storing workspaces and folders
type WorkspaceStorage interface {
	// SaveWorkspace stores or updates a workspace record
	SaveWorkspace(ctx context.Context, ws *models.Workspace) error

	// GetWorkspace retrieves a workspace by local ID
	// Returns ErrWorkspaceNotFound if workspace doesn't exist
	GetWorkspace(ctx context.Context, localID string) (*models.Workspace, error)

	// ListWorkspaces returns all workspaces
	ListWorkspaces(ctx context.Context) ([]*models.Workspace, error)

	// SaveFolder stores or updates a folder record
	SaveFolder(ctx context.Context, folder *models.Folder) error

	// GetFolder retrieves a folder by local ID
	// Returns ErrFolderNotFound if folder doesn't exist
	GetFolder(ctx context.Context, localID string) (*models.Folder, error)

	// ListFolders returns all folders of a workspace
	ListFolders(ctx context.Context, workspaceID string) ([]*models.Folder, error)

	// DeleteFolder removes a folder record
	DeleteFolder(ctx context.Context, localID string) error
}
