package storage

import "context"

//go:generate moq -out meta_mock.go . MetaStorage

// MetaStorage defines interface for storing client sync metadata
type MetaStorage interface {
	// SaveLastSyncAt saves the unix timestamp of the last successful sync
	SaveLastSyncAt(ctx context.Context, timestamp int64) error

	// GetLastSyncAt retrieves the unix timestamp of the last successful sync
	// Returns 0 if no sync has been performed yet
	GetLastSyncAt(ctx context.Context) (int64, error)

	// SaveNodeID persists the device node id used by the Lamport clock
	SaveNodeID(ctx context.Context, nodeID string) error

	// GetNodeID retrieves the persisted device node id
	// Returns empty string if none was saved
	GetNodeID(ctx context.Context) (string, error)

	// SaveActiveWorkspace persists the currently selected workspace
	SaveActiveWorkspace(ctx context.Context, workspaceID string) error

	// GetActiveWorkspace retrieves the currently selected workspace
	GetActiveWorkspace(ctx context.Context) (string, error)
}
