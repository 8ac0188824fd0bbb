package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out documents_mock.go . DocumentStorage

// DocumentStorage defines interface for storing document metadata
// and content on client
type DocumentStorage interface {
	// SaveDocument stores or updates a document record
	SaveDocument(ctx context.Context, doc *models.DocumentMeta) error

	// GetDocument retrieves a document by local ID
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, localID string) (*models.DocumentMeta, error)

	// ListDocuments returns all documents of a workspace.
	// Empty workspaceID returns documents of all workspaces.
	ListDocuments(ctx context.Context, workspaceID string) ([]*models.DocumentMeta, error)

	// DeleteDocument removes a document record from local storage
	DeleteDocument(ctx context.Context, localID string) error
}
