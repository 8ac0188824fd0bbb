package models

import "time"

// ConflictKind вид конфликта
type ConflictKind string

const (
	ConflictContent  ConflictKind = "content"  // расхождение контента при version mismatch
	ConflictDeletion ConflictKind = "deletion" // одна сторона удалила, другая изменила
)

// ConflictChoice выбор пользователя при разрешении конфликта
type ConflictChoice string

const (
	ChoiceLocal  ConflictChoice = "local"
	ChoiceRemote ConflictChoice = "remote"
)

// ConflictVersion снимок одной стороны конфликта.
// Записывается полностью в момент обнаружения, чтобы разрешение
// не требовало повторных обращений к серверу.
type ConflictVersion struct {
	UpdatedAt time.Time `json:"updated_at"`
	Content   string    `json:"content"`
	CRDTState []byte    `json:"crdt_state,omitempty"`
	Title     string    `json:"title"`
	Version   int64     `json:"version"`
}

// Conflict представляет обнаруженный конфликт версий.
// Создается детектором когда remote.version ушла вперед относительно
// базовой версии локального изменения и контент различается.
// Уничтожается только явным Resolve — автоматического разрешения нет.
type Conflict struct {
	DetectedAt time.Time       `json:"detected_at"`
	ID         string          `json:"id"`
	EntityID   string          `json:"entity_id"` // локальный идентификатор
	Local      ConflictVersion `json:"local"`
	Remote     ConflictVersion `json:"remote"`
	Kind       ConflictKind    `json:"kind"`
}
