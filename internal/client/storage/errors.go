package storage

import "errors"

// Common client storage errors
var (
	// ErrDocumentNotFound indicates that document was not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrWorkspaceNotFound indicates that workspace was not found
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrFolderNotFound indicates that folder was not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrChangeNotFound indicates that pending change was not found
	ErrChangeNotFound = errors.New("pending change not found")

	// ErrMappingNotFound indicates that id mapping was not found
	ErrMappingNotFound = errors.New("id mapping not found")

	// ErrConflictNotFound indicates that conflict record was not found
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrSessionNotFound indicates that no session data exists
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
