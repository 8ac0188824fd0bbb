package storage

import (
	"context"
	"time"
)

// Workspace представляет workspace в серверном хранилище
type Workspace struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	OwnerID   string
	Name      string
	Version   int64
	Deleted   bool
}

// Folder представляет папку в серверном хранилище
type Folder struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	OwnerID     string
	WorkspaceID string
	ParentID    string
	Name        string
	Version     int64
	Deleted     bool
}

// WorkspaceStorage defines interface for workspace and folder persistence
type WorkspaceStorage interface {
	// CreateWorkspace stores a new workspace (idempotent by id)
	CreateWorkspace(ctx context.Context, ws *Workspace) (*Workspace, error)

	// GetWorkspace retrieves a workspace by id scoped to owner
	// Returns ErrWorkspaceNotFound if workspace doesn't exist
	GetWorkspace(ctx context.Context, ownerID, id string) (*Workspace, error)

	// ListWorkspaces returns all workspaces of a user
	ListWorkspaces(ctx context.Context, ownerID string) ([]*Workspace, error)

	// UpdateWorkspace renames a workspace with optimistic locking
	UpdateWorkspace(ctx context.Context, ownerID, id string, name *string, expectedVersion int64) (*Workspace, error)

	// CreateFolder stores a new folder (idempotent by id)
	CreateFolder(ctx context.Context, folder *Folder) (*Folder, error)

	// GetFolder retrieves a folder by id scoped to owner
	// Returns ErrFolderNotFound if folder doesn't exist
	GetFolder(ctx context.Context, ownerID, id string) (*Folder, error)

	// ListFolders returns folders of a workspace
	ListFolders(ctx context.Context, ownerID, workspaceID string) ([]*Folder, error)

	// UpdateFolder updates a folder with optimistic locking
	UpdateFolder(ctx context.Context, ownerID, id string, name, parentID *string, expectedVersion int64) (*Folder, error)

	// DeleteFolder marks a folder deleted with optimistic locking
	DeleteFolder(ctx context.Context, ownerID, id string, expectedVersion int64) error
}
