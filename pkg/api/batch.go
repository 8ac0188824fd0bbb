package api

// Типы операций в batch запросе
const (
	BatchOpCreate = "create"
	BatchOpUpdate = "update"
	BatchOpDelete = "delete"
)

// Статусы результата отдельной операции
const (
	BatchStatusSuccess  = "success"
	BatchStatusConflict = "conflict"
	BatchStatusError    = "error"
	BatchStatusSkipped  = "skipped"
)

// Ограничение на размер batch запроса
const (
	BatchMinOperations = 1
	BatchMaxOperations = 100
)

// BatchOperation одна операция в batch запросе.
// ClientID задается клиентом и возвращается в результате без
// изменений — по нему клиент сопоставляет результаты, не полагаясь
// на серверные идентификаторы.
type BatchOperation struct {
	Operation       string                 `json:"operation"` // create | update | delete
	ClientID        string                 `json:"client_id"`
	DocumentID      string                 `json:"document_id,omitempty"`
	Data            *DocumentCreateRequest `json:"data,omitempty"`
	Update          *DocumentUpdateRequest `json:"update,omitempty"`
	ExpectedVersion *int64                 `json:"expected_version,omitempty"`
}

// BatchRequest запрос на пакетную синхронизацию документов.
// Сервер применяет операции в порядке create → update → delete
// независимо от порядка во входном списке.
type BatchRequest struct {
	WorkspaceID string           `json:"workspace_id"`
	Atomic      bool             `json:"atomic"`
	Operations  []BatchOperation `json:"operations"`
}

// BatchResult результат одной операции
type BatchResult struct {
	ClientID     string            `json:"client_id"`
	Status       string            `json:"status"` // success | conflict | error | skipped
	DocumentID   string            `json:"document_id,omitempty"`
	Version      int64             `json:"version,omitempty"`
	Error        string            `json:"error,omitempty"`
	ConflictData *ConflictResponse `json:"conflict_data,omitempty"`
}

// BatchResponse ответ на batch запрос.
// В atomic режиме при любой ошибке сервер отвечает HTTP 409
// и ни одна операция не применяется.
type BatchResponse struct {
	Total            int           `json:"total"`
	Successful       int           `json:"successful"`
	Failed           int           `json:"failed"`
	ProcessingTimeMS int64         `json:"processing_time_ms"`
	Results          []BatchResult `json:"results"`
}
