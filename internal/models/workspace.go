package models

import "time"

// Workspace представляет workspace в локальном хранилище
type Workspace struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LocalID   string    `json:"local_id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	Deleted   bool      `json:"deleted"`
}

// Folder представляет папку в локальном хранилище
type Folder struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LocalID     string    `json:"local_id"`
	RemoteID    string    `json:"remote_id,omitempty"`
	WorkspaceID string    `json:"workspace_id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Version     int64     `json:"version"`
	Deleted     bool      `json:"deleted"`
}
