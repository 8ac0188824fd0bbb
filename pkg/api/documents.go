package api

import "time"

// StorageMode значения режима хранения документа на сервере.
// Должны совпадать со значениями клиентского SyncMode.
const (
	StorageModeLocalOnly  = "LocalOnly"
	StorageModeCloud      = "CloudEnabled"
	StorageModePendingSync = "PendingSync"
)

// Document представляет документ в API формате
type Document struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`           // канонический (серверный) идентификатор
	WorkspaceID string    `json:"workspace_id"` // workspace-владелец
	FolderID    string    `json:"folder_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`      // markdown fallback (legacy plain text)
	ContentType string    `json:"content_type"` // "markdown" или "html"
	StorageMode string    `json:"storage_mode"`
	CRDTState   []byte    `json:"crdt_state,omitempty"` // бинарный снапшот CRDT состояния
	Version     int64     `json:"version"`              // монотонная версия для optimistic locking
	Deleted     bool      `json:"deleted"`              // soft delete флаг
}

// DocumentCreateRequest запрос на создание документа.
// ID задается клиентом и служит idempotency key: повторный create
// с тем же ID возвращает существующий документ, а не дубликат.
type DocumentCreateRequest struct {
	ID          string `json:"id,omitempty"`
	WorkspaceID string `json:"workspace_id"`
	FolderID    string `json:"folder_id,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	StorageMode string `json:"storage_mode,omitempty"`
	CRDTState   []byte `json:"crdt_state,omitempty"`
}

// DocumentUpdateRequest запрос на обновление документа.
// Nil-поля не изменяются. ExpectedVersion включает optimistic
// concurrency check: при несовпадении сервер отвечает 409 и
// присылает текущее состояние документа.
type DocumentUpdateRequest struct {
	Title           *string `json:"title,omitempty"`
	Content         *string `json:"content,omitempty"`
	FolderID        *string `json:"folder_id,omitempty"`
	StorageMode     *string `json:"storage_mode,omitempty"`
	CRDTState       []byte  `json:"crdt_state,omitempty"`
	ExpectedVersion *int64  `json:"expected_version,omitempty"`
}

// ConflictResponse ответ сервера при version conflict (HTTP 409).
// Содержит полное текущее состояние, чтобы клиенту не требовался
// дополнительный запрос для построения Conflict записи.
type ConflictResponse struct {
	Message         string   `json:"message"`
	ExpectedVersion int64    `json:"expected_version"`
	CurrentVersion  int64    `json:"current_version"`
	Current         Document `json:"current"`
}
