package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// SaveDocument stores or updates a document record in BoltDB
func (s *Storage) SaveDocument(ctx context.Context, doc *models.DocumentMeta) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	// Сериализуем документ в JSON
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)

		if err := bucket.Put([]byte(doc.LocalID), data); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// GetDocument retrieves a document by local ID
func (s *Storage) GetDocument(ctx context.Context, localID string) (*models.DocumentMeta, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var doc *models.DocumentMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)

		data := bucket.Get([]byte(localID))
		if data == nil {
			return storage.ErrDocumentNotFound
		}

		doc = &models.DocumentMeta{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ListDocuments returns all documents of a workspace.
// Empty workspaceID returns documents of all workspaces.
func (s *Storage) ListDocuments(ctx context.Context, workspaceID string) ([]*models.DocumentMeta, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var docs []*models.DocumentMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)

		return bucket.ForEach(func(k, v []byte) error {
			var doc models.DocumentMeta
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("failed to unmarshal document: %w", err)
			}

			// Фильтруем по workspace
			if workspaceID != "" && doc.WorkspaceID != workspaceID {
				return nil
			}

			docs = append(docs, &doc)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document record from local storage
func (s *Storage) DeleteDocument(ctx context.Context, localID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)

		if bucket.Get([]byte(localID)) == nil {
			return storage.ErrDocumentNotFound
		}

		return bucket.Delete([]byte(localID))
	})

	if err != nil {
		return err
	}

	return nil
}
