package models

import "time"

// SyncMode режим синхронизации документа.
// Режим задается на документ: в одном workspace могут сосуществовать
// LocalOnly и CloudEnabled документы.
type SyncMode string

const (
	SyncModeLocalOnly   SyncMode = "LocalOnly"   // только локальное хранилище, в сеть не уходит
	SyncModeCloud       SyncMode = "CloudEnabled" // двунаправленная синхронизация
	SyncModePendingSync SyncMode = "PendingSync"  // создан локально, ждет первой синхронизации
)

// SyncStatus статус синхронизации документа
type SyncStatus string

const (
	SyncStatusLocal    SyncStatus = "Local"
	SyncStatusSynced   SyncStatus = "Synced"
	SyncStatusSyncing  SyncStatus = "Syncing"
	SyncStatusModified SyncStatus = "Modified"
	SyncStatusConflict SyncStatus = "Conflict"
	SyncStatusError    SyncStatus = "Error"
)

// statusSeverity упорядочивает статусы для индикатора "худшего" статуса:
// Error > Conflict > Syncing > Modified > Synced > Local
var statusSeverity = map[SyncStatus]int{
	SyncStatusError:    5,
	SyncStatusConflict: 4,
	SyncStatusSyncing:  3,
	SyncStatusModified: 2,
	SyncStatusSynced:   1,
	SyncStatusLocal:    0,
}

// WorstStatus возвращает наиболее "тяжелый" статус из набора.
// Используется для агрегированного индикатора по workspace.
func WorstStatus(statuses []SyncStatus) SyncStatus {
	worst := SyncStatusLocal
	for _, s := range statuses {
		if statusSeverity[s] > statusSeverity[worst] {
			worst = s
		}
	}
	return worst
}

// DocumentMeta представляет локальное состояние документа.
// Инварианты:
//   - SyncStatus == Synced влечет RemoteID != "" и Version равен
//     последней подтвержденной сервером версии;
//   - SyncMode == LocalOnly влечет отсутствие PendingChange для
//     этой сущности в очереди.
type DocumentMeta struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LocalID      string     `json:"local_id"`
	RemoteID     string     `json:"remote_id,omitempty"` // пустой до первой успешной синхронизации
	WorkspaceID  string     `json:"workspace_id"`
	FolderID     string     `json:"folder_id,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"` // markdown fallback для документов до CRDT
	ContentDigest string    `json:"content_digest,omitempty"`
	NodeID       string     `json:"node_id"` // узел, сделавший последнее изменение метаданных
	CRDTState    []byte     `json:"crdt_state,omitempty"` // opaque снапшот CRDT документа
	SyncMode     SyncMode   `json:"sync_mode"`
	SyncStatus   SyncStatus `json:"sync_status"`
	Version      int64      `json:"version"`   // версия, подтвержденная сервером
	Timestamp    int64      `json:"timestamp"` // Lamport timestamp последнего изменения метаданных
	Deleted      bool       `json:"deleted"`
}

// IsNewerThan сравнивает метаданные двух версий документа по правилу LWW:
// больший Timestamp выигрывает, при равных — лексикографически больший
// NodeID (детерминизм). Применяется только к не-CRDT полям (заголовок,
// размещение); текст всегда мержится CRDT движком.
func (d *DocumentMeta) IsNewerThan(other *DocumentMeta) bool {
	if d.Timestamp != other.Timestamp {
		return d.Timestamp > other.Timestamp
	}
	return d.NodeID > other.NodeID
}

// Clone создает глубокую копию метаданных
func (d *DocumentMeta) Clone() *DocumentMeta {
	clone := *d

	if d.LastSyncedAt != nil {
		t := *d.LastSyncedAt
		clone.LastSyncedAt = &t
	}

	clone.CRDTState = make([]byte, len(d.CRDTState))
	copy(clone.CRDTState, d.CRDTState)

	return &clone
}
