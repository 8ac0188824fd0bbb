package storage

import "context"

//go:generate moq -out idmap_mock.go . IDMapStorage

// IDMapStorage defines interface for the persisted local↔remote
// identifier mapping table
type IDMapStorage interface {
	// SaveMapping records a local→remote id pair (both directions)
	SaveMapping(ctx context.Context, localID, remoteID string) error

	// GetRemoteID returns the server-assigned id for a local id
	// Returns ErrMappingNotFound if entity was never synced
	GetRemoteID(ctx context.Context, localID string) (string, error)

	// GetLocalID returns the local id for a server-assigned id
	// Returns ErrMappingNotFound if no mapping exists
	GetLocalID(ctx context.Context, remoteID string) (string, error)

	// DeleteMapping removes a mapping pair by local id
	DeleteMapping(ctx context.Context, localID string) error
}
