// Package idmap реализует единственную точку нормализации идентификаторов.
// Локальные идентификаторы несут типовой префикс ("document_..."),
// серверные — голые UUID. Никакой другой код не разбирает строки
// идентификаторов: две независимые реализации нормализации исторически
// означают два несовместимых поведения на граничных случаях.
package idmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// Ошибки нормализации
var (
	// ErrEmptyID пустой идентификатор
	ErrEmptyID = errors.New("empty identifier")

	// ErrUnknownPrefix идентификатор с неизвестным типовым префиксом
	ErrUnknownPrefix = errors.New("unknown identifier prefix")
)

// prefixes типовые префиксы локальных идентификаторов
var prefixes = map[models.EntityType]string{
	models.EntityDocument:  "document_",
	models.EntityFolder:    "folder_",
	models.EntityWorkspace: "workspace_",
}

// Normalizer отображает локальные идентификаторы в канонические
// (серверные) и обратно. Таблица соответствий заполняется при первой
// успешной синхронизации сущности и хранится durable.
type Normalizer struct {
	store  storage.IDMapStorage
	logger *slog.Logger
}

// New creates a new Normalizer
func New(store storage.IDMapStorage, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		store:  store,
		logger: logger,
	}
}

// LocalPrefix возвращает типовой префикс для типа сущности
func LocalPrefix(entityType models.EntityType) string {
	return prefixes[entityType]
}

// NewLocalID собирает локальный идентификатор из типа и канонической части
func NewLocalID(entityType models.EntityType, canonical string) string {
	return prefixes[entityType] + canonical
}

// EntityTypeOf определяет тип сущности по префиксу локального
// идентификатора. Второй результат false для непрефиксованных id.
func EntityTypeOf(id string) (models.EntityType, bool) {
	for entityType, prefix := range prefixes {
		if strings.HasPrefix(id, prefix) {
			return entityType, true
		}
	}
	return "", false
}

// ToCanonical снимает типовой префикс с локального идентификатора.
// Идентификатор без известного префикса уже канонический и
// возвращается без изменений.
func ToCanonical(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(id, prefix) {
			stripped := strings.TrimPrefix(id, prefix)
			if stripped == "" {
				return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, id)
			}
			return stripped, nil
		}
	}

	// Защита от двусмысленных форм вида "something_uuid" с чужим префиксом
	if i := strings.IndexByte(id, '_'); i > 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, id)
	}

	return id, nil
}

// ToLocal добавляет типовой префикс к каноническому идентификатору.
// Уже префиксованный идентификатор возвращается без изменений.
func ToLocal(entityType models.EntityType, id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}

	prefix := prefixes[entityType]
	if strings.HasPrefix(id, prefix) {
		return id, nil
	}

	if _, prefixed := EntityTypeOf(id); prefixed {
		return "", fmt.Errorf("%w: %q has prefix of another entity type", ErrUnknownPrefix, id)
	}

	return prefix + id, nil
}

// RecordMapping сохраняет соответствие local→remote после первой
// успешной синхронизации сущности
func (n *Normalizer) RecordMapping(ctx context.Context, localID, remoteID string) error {
	if localID == "" || remoteID == "" {
		return ErrEmptyID
	}

	if err := n.store.SaveMapping(ctx, localID, remoteID); err != nil {
		return fmt.Errorf("failed to record id mapping: %w", err)
	}

	n.logger.Debug("Recorded id mapping", "local_id", localID, "remote_id", remoteID)
	return nil
}

// Resolve возвращает канонический идентификатор для исходящего
// сетевого вызова. Для уже синхронизированной сущности — серверный id
// из таблицы соответствий; для еще не синхронизированной —
// каноническая форма локального id (она же idempotency key при create).
func (n *Normalizer) Resolve(ctx context.Context, localID string) (string, error) {
	remoteID, err := n.store.GetRemoteID(ctx, localID)
	if err == nil {
		return remoteID, nil
	}
	if !errors.Is(err, storage.ErrMappingNotFound) {
		return "", fmt.Errorf("failed to look up id mapping: %w", err)
	}

	return ToCanonical(localID)
}

// ResolveLocal возвращает локальный идентификатор для входящей
// серверной записи. Если сущность сервером создана и локально еще
// не встречалась, локальный id строится из канонического.
func (n *Normalizer) ResolveLocal(ctx context.Context, entityType models.EntityType, remoteID string) (string, error) {
	localID, err := n.store.GetLocalID(ctx, remoteID)
	if err == nil {
		return localID, nil
	}
	if !errors.Is(err, storage.ErrMappingNotFound) {
		return "", fmt.Errorf("failed to look up id mapping: %w", err)
	}

	return ToLocal(entityType, remoteID)
}
