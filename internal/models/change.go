package models

import "time"

// EntityType тип сущности, к которой относится изменение
type EntityType string

const (
	EntityDocument  EntityType = "document"
	EntityFolder    EntityType = "folder"
	EntityWorkspace EntityType = "workspace"
)

// Operation тип операции в очереди синхронизации
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Priority приоритет изменения в очереди.
// critical — структурные действия пользователя (создание, перемещение),
// normal — автосохранение контента, low — второстепенные метаданные.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityNormal   Priority = 2
	PriorityLow      Priority = 3
)

// String возвращает строковое представление приоритета
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// PendingChange представляет одно отложенное изменение в durable очереди.
// Запись создается синхронно с локальной записью данных, поэтому
// закрытие приложения или crash не теряют накопленный offline intent.
type PendingChange struct {
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	NextRetryAt time.Time       `json:"next_retry_at"` // не раньше этого времени запись берется в обработку
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"` // изоляция очереди по workspace
	EntityType  EntityType      `json:"entity_type"`
	EntityID    string          `json:"entity_id"` // локальный идентификатор сущности
	Operation   Operation       `json:"operation"`
	Payload     []byte          `json:"payload"` // JSON сериализованные данные операции
	LastError   string          `json:"last_error,omitempty"`
	Priority    Priority        `json:"priority"`
	RetryCount  int             `json:"retry_count"`
}

// CoalesceKey ключ схлопывания: не более одной pending записи на
// (entity_id, класс операции). Повторные update одной сущности
// заменяют payload вместо накопления N записей в очереди.
func (c *PendingChange) CoalesceKey() string {
	return c.EntityID + "/" + string(c.Operation)
}

// Clone создает глубокую копию изменения
func (c *PendingChange) Clone() *PendingChange {
	payload := make([]byte, len(c.Payload))
	copy(payload, c.Payload)

	clone := *c
	clone.Payload = payload
	return &clone
}
