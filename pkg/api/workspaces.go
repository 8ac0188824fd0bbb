package api

import "time"

// Workspace представляет workspace в API формате
type Workspace struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	Deleted   bool      `json:"deleted"`
}

// WorkspaceCreateRequest запрос на создание workspace.
// ID клиентский, служит idempotency key как и у документов.
type WorkspaceCreateRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// WorkspaceUpdateRequest запрос на обновление workspace
type WorkspaceUpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	ExpectedVersion *int64  `json:"expected_version,omitempty"`
}

// Folder представляет папку внутри workspace
type Folder struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Version     int64     `json:"version"`
	Deleted     bool      `json:"deleted"`
}

// FolderCreateRequest запрос на создание папки
type FolderCreateRequest struct {
	ID          string `json:"id,omitempty"`
	WorkspaceID string `json:"workspace_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
}

// FolderUpdateRequest запрос на обновление папки
type FolderUpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	ParentID        *string `json:"parent_id,omitempty"`
	ExpectedVersion *int64  `json:"expected_version,omitempty"`
}
