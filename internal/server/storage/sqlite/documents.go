package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/notesync/internal/server/storage"
)

// dbtx объединяет *sql.DB и *sql.Tx: операции над документами
// одинаково выполняются напрямую и внутри batch транзакции
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const documentColumns = `id, owner_id, workspace_id, folder_id, title, content,
		content_type, storage_mode, crdt_state, version, deleted, created_at, updated_at`

// CreateDocument stores a new document with version 1.
// id задается клиентом и служит idempotency key: повторный create
// возвращает существующий документ без изменений.
func (s *Storage) CreateDocument(ctx context.Context, doc *storage.Document) (*storage.Document, error) {
	return createDocument(ctx, s.db, doc)
}

// GetDocument retrieves a document by id scoped to owner
func (s *Storage) GetDocument(ctx context.Context, ownerID, id string) (*storage.Document, error) {
	return getDocument(ctx, s.db, ownerID, id)
}

// ListDocuments returns documents of a workspace
func (s *Storage) ListDocuments(ctx context.Context, ownerID, workspaceID string) ([]*storage.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = ? AND workspace_id = ?
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*storage.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// UpdateDocument applies a partial update with optimistic locking
func (s *Storage) UpdateDocument(ctx context.Context, ownerID, id string, update storage.DocumentUpdate, expectedVersion int64) (*storage.Document, error) {
	return updateDocument(ctx, s.db, ownerID, id, update, expectedVersion)
}

// DeleteDocument marks a document deleted with optimistic locking
func (s *Storage) DeleteDocument(ctx context.Context, ownerID, id string, expectedVersion int64) error {
	return deleteDocument(ctx, s.db, ownerID, id, expectedVersion)
}

// createDocument вставляет документ, повторная вставка того же id
// возвращает существующую запись
func createDocument(ctx context.Context, q dbtx, doc *storage.Document) (*storage.Document, error) {
	existing, err := getDocument(ctx, q, doc.OwnerID, doc.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrDocumentNotFound) {
		return nil, err
	}

	now := time.Now()
	stored := *doc
	stored.Version = 1
	stored.Deleted = false
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.ContentType == "" {
		stored.ContentType = "markdown"
	}
	if stored.StorageMode == "" {
		stored.StorageMode = "CloudEnabled"
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		stored.ID,
		stored.OwnerID,
		stored.WorkspaceID,
		stored.FolderID,
		stored.Title,
		stored.Content,
		stored.ContentType,
		stored.StorageMode,
		stored.CRDTState,
		stored.Version,
		stored.Deleted,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return &stored, nil
}

func getDocument(ctx context.Context, q dbtx, ownerID, id string) (*storage.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = ? AND id = ?
	`

	doc, err := scanDocumentRow(q.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, err
	}

	return doc, nil
}

func updateDocument(ctx context.Context, q dbtx, ownerID, id string, update storage.DocumentUpdate, expectedVersion int64) (*storage.Document, error) {
	doc, err := getDocument(ctx, q, ownerID, id)
	if err != nil {
		return nil, err
	}
	if doc.Deleted {
		return nil, storage.ErrDocumentNotFound
	}

	if expectedVersion != 0 && expectedVersion != doc.Version {
		return nil, storage.ErrVersionMismatch
	}

	if update.Title != nil {
		doc.Title = *update.Title
	}
	if update.Content != nil {
		doc.Content = *update.Content
	}
	if update.FolderID != nil {
		doc.FolderID = *update.FolderID
	}
	if update.StorageMode != nil {
		doc.StorageMode = *update.StorageMode
	}
	if len(update.CRDTState) > 0 {
		doc.CRDTState = update.CRDTState
	}
	doc.Version++
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE documents
		SET title = ?, content = ?, folder_id = ?, storage_mode = ?,
			crdt_state = ?, version = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	_, err = q.ExecContext(ctx, query,
		doc.Title,
		doc.Content,
		doc.FolderID,
		doc.StorageMode,
		doc.CRDTState,
		doc.Version,
		doc.UpdatedAt,
		ownerID,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	return doc, nil
}

func deleteDocument(ctx context.Context, q dbtx, ownerID, id string, expectedVersion int64) error {
	doc, err := getDocument(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	if doc.Deleted {
		// Повторный delete идемпотентен
		return nil
	}

	if expectedVersion != 0 && expectedVersion != doc.Version {
		return storage.ErrVersionMismatch
	}

	query := `
		UPDATE documents
		SET deleted = 1, version = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	if _, err := q.ExecContext(ctx, query, doc.Version+1, time.Now(), ownerID, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentRow(row rowScanner) (*storage.Document, error) {
	doc := &storage.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.WorkspaceID,
		&doc.FolderID,
		&doc.Title,
		&doc.Content,
		&doc.ContentType,
		&doc.StorageMode,
		&doc.CRDTState,
		&doc.Version,
		&doc.Deleted,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	return doc, nil
}
