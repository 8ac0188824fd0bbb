package storage

import (
	"context"
	"time"
)

// Document представляет документ в серверном хранилище.
// Version монотонно растет на каждую запись; Deleted — soft delete,
// запись остается для корректных ответов на повторные операции клиентов.
type Document struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string // канонический id, задается клиентом (idempotency key)
	OwnerID     string
	WorkspaceID string
	FolderID    string
	Title       string
	Content     string
	ContentType string
	StorageMode string
	CRDTState   []byte
	Version     int64
	Deleted     bool
}

// DocumentUpdate описывает частичное обновление документа.
// Nil-поля не изменяются.
type DocumentUpdate struct {
	Title       *string
	Content     *string
	FolderID    *string
	StorageMode *string
	CRDTState   []byte
}

// DocumentStorage defines interface for server-side document persistence
type DocumentStorage interface {
	// CreateDocument stores a new document with version 1.
	// Повторный create с тем же id возвращает существующий документ:
	// id задается клиентом и служит idempotency key.
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)

	// GetDocument retrieves a document by id scoped to owner
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, ownerID, id string) (*Document, error)

	// ListDocuments returns documents of a workspace
	ListDocuments(ctx context.Context, ownerID, workspaceID string) ([]*Document, error)

	// UpdateDocument applies a partial update with optimistic locking.
	// expectedVersion == 0 отключает проверку версии.
	// Returns ErrVersionMismatch if expectedVersion doesn't match.
	UpdateDocument(ctx context.Context, ownerID, id string, update DocumentUpdate, expectedVersion int64) (*Document, error)

	// DeleteDocument marks a document deleted (soft delete) with
	// optimistic locking
	DeleteDocument(ctx context.Context, ownerID, id string, expectedVersion int64) error

	// ApplyBatch applies a set of operations, optionally in a single
	// transaction (atomic). Возвращает результат каждой операции.
	ApplyBatch(ctx context.Context, ownerID string, batch Batch) (*BatchOutcome, error)
}

// Batch набор операций пакетной синхронизации
type Batch struct {
	WorkspaceID string
	Atomic      bool
	Operations  []BatchOp
}

// BatchOp одна операция пакета, уже провалидированная обработчиком
type BatchOp struct {
	ClientID        string
	Kind            string // create | update | delete
	DocumentID      string
	Create          *Document
	Update          *DocumentUpdate
	ExpectedVersion int64
}

// BatchOutcome результат применения пакета
type BatchOutcome struct {
	Results []BatchOpResult
}

// BatchOpResult результат одной операции пакета
type BatchOpResult struct {
	ClientID string
	Status   string // success | conflict | error | skipped
	Doc      *Document
	Current  *Document // текущее состояние при конфликте
	Err      string
}
