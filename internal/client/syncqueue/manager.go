// Package syncqueue реализует durable очередь изменений и ее обработку.
//
// Каждая локальная правка синхронно с записью данных ставит в очередь
// PendingChange. Очередь переживает рестарты, схлопывает повторные
// изменения одной сущности и при появлении сети выталкивает накопленное
// в порядке приоритетов. Сетевые сбои уводят записи в экспоненциальный
// backoff, конфликты версий — в детектор конфликтов.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// Ошибки очереди
var (
	// ErrLocalOnlyEntity попытка поставить в очередь LocalOnly сущность
	ErrLocalOnlyEntity = errors.New("entity is local-only and never syncs")

	// ErrNotAuthenticated нет валидного токена для обработки очереди
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TokenSource возвращает текущий access token для сетевых вызовов
type TokenSource func(ctx context.Context) (string, error)

// ConflictDetector строит запись конфликта из 409 ответа сервера
type ConflictDetector interface {
	Detect(ctx context.Context, localID string, resp *api.ConflictResponse) (*models.Conflict, error)
}

// Config параметры обработки очереди
type Config struct {
	// MaxRetries число попыток до перевода записи в Error
	MaxRetries int

	// BackoffBase базовая задержка повторов, удваивается на каждую попытку
	BackoffBase time.Duration

	// BackoffMax потолок задержки повторов
	BackoffMax time.Duration

	// StaleAfter возраст, после которого исчерпавшая попытки запись
	// считается протухшей и удаляется CleanupStale
	StaleAfter time.Duration
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxRetries:  5,
		BackoffBase: 30 * time.Second,
		BackoffMax:  time.Hour,
		StaleAfter:  24 * time.Hour,
	}
}

// Manager владеет durable очередью изменений: постановка со схлопыванием,
// приоритетная обработка, backoff и чистка протухших записей.
// Обработка однопоточная: одновременно идет не более одного прохода.
type Manager struct {
	queue      storage.QueueStorage
	docs       storage.DocumentStorage
	workspaces storage.WorkspaceStorage
	meta       storage.MetaStorage
	ids        *idmap.Normalizer
	apiClient  apiclient.ClientAPI
	detector   ConflictDetector
	monitor    *netmon.Monitor
	bus        *events.Bus
	logger     *slog.Logger
	token      TokenSource
	kick       chan struct{}
	cfg        Config
	mu         sync.Mutex // сериализует проходы обработки
}

// NewManager creates a new queue manager
func NewManager(
	queue storage.QueueStorage,
	docs storage.DocumentStorage,
	workspaces storage.WorkspaceStorage,
	meta storage.MetaStorage,
	ids *idmap.Normalizer,
	apiClient apiclient.ClientAPI,
	detector ConflictDetector,
	monitor *netmon.Monitor,
	bus *events.Bus,
	token TokenSource,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		queue:      queue,
		docs:       docs,
		workspaces: workspaces,
		meta:       meta,
		ids:        ids,
		apiClient:  apiClient,
		detector:   detector,
		monitor:    monitor,
		bus:        bus,
		token:      token,
		kick:       make(chan struct{}, 1),
		cfg:        cfg,
		logger:     logger,
	}
}

// Enqueue ставит изменение в durable очередь.
//
// Изменения LocalOnly документов отвергаются с ErrLocalOnlyEntity.
// Повторное изменение той же сущности с тем же классом операции
// схлопывается: payload заменяется свежим, позиция в очереди и счетчик
// попыток сохраняются от первой записи. При доступной сети обработка
// запускается немедленно, offline запись просто копится.
func (m *Manager) Enqueue(ctx context.Context, change *models.PendingChange) error {
	if change.EntityType == models.EntityDocument {
		doc, err := m.docs.GetDocument(ctx, change.EntityID)
		if err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
			return fmt.Errorf("load document for enqueue: %w", err)
		}
		if err == nil {
			if doc.SyncMode == models.SyncModeLocalOnly {
				return ErrLocalOnlyEntity
			}

			// Удаление никогда не синхронизированной сущности гасит
			// ее очередь целиком: серверу нечего удалять
			if change.Operation == models.OpDelete && doc.RemoteID == "" {
				return m.cancelUnsynced(ctx, change.EntityID)
			}
		}
	}

	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	now := time.Now()
	if change.EnqueuedAt.IsZero() {
		change.EnqueuedAt = now
	}
	if change.NextRetryAt.IsZero() {
		change.NextRetryAt = now
	}

	prev, err := m.queue.GetChangeByKey(ctx, change.CoalesceKey())
	switch {
	case err == nil:
		// Схлопывание: запись одна, payload последний, позиция и
		// backoff от первой постановки
		change.ID = prev.ID
		change.EnqueuedAt = prev.EnqueuedAt
		change.RetryCount = prev.RetryCount
		change.NextRetryAt = prev.NextRetryAt
		if prev.Priority < change.Priority {
			change.Priority = prev.Priority
		}
	case errors.Is(err, storage.ErrChangeNotFound):
		// Первая запись для этого ключа
	default:
		return fmt.Errorf("coalesce lookup: %w", err)
	}

	if err := m.queue.SaveChange(ctx, change); err != nil {
		return fmt.Errorf("persist change: %w", err)
	}

	m.logger.Debug("Change enqueued",
		"entity_id", change.EntityID,
		"operation", string(change.Operation),
		"priority", change.Priority.String(),
		"coalesced", err == nil,
	)
	m.bus.PublishChangeEnqueued(events.ChangeEnqueued{
		WorkspaceID: change.WorkspaceID,
		EntityID:    change.EntityID,
		Operation:   change.Operation,
		Priority:    change.Priority,
	})

	m.markModified(ctx, change)

	if m.monitor.IsOnline() {
		m.Kick()
	}

	return nil
}

// Kick просит планировщик запустить внеочередной проход обработки.
// Неблокирующий: уже ожидающий запрос не дублируется.
func (m *Manager) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// PendingForUser возвращает количество неотправленных изменений.
// Logout показывает это число пользователю: очистка очереди без
// подтверждения молча теряет накопленную offline работу.
func (m *Manager) PendingForUser(ctx context.Context) (int, error) {
	return m.queue.CountChanges(ctx)
}

// ClearQueue очищает очередь. Вызывается только после явного
// подтверждения пользователем при logout.
func (m *Manager) ClearQueue(ctx context.Context) error {
	return m.queue.ClearQueue(ctx)
}

// DrainWorkspace пытается вытолкнуть очередь workspace за отведенное
// время. Используется перед logout: лучше отправить что успеем, чем
// ставить пользователя перед выбором "ждать или потерять".
func (m *Manager) DrainWorkspace(ctx context.Context, workspaceID string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return m.ProcessQueue(ctx, workspaceID)
}

// cancelUnsynced удаляет из очереди все записи сущности, которой еще
// нет на сервере, и ее локальную запись
func (m *Manager) cancelUnsynced(ctx context.Context, entityID string) error {
	for _, op := range []models.Operation{models.OpCreate, models.OpUpdate, models.OpDelete} {
		prev, err := m.queue.GetChangeByKey(ctx, entityID+"/"+string(op))
		if errors.Is(err, storage.ErrChangeNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup queued change: %w", err)
		}
		if err := m.queue.DeleteChange(ctx, prev.ID); err != nil {
			return fmt.Errorf("cancel queued change: %w", err)
		}
	}

	if err := m.docs.DeleteDocument(ctx, entityID); err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
		return fmt.Errorf("delete local document: %w", err)
	}

	m.logger.Debug("Unsynced entity deleted locally, queue entries cancelled", "entity_id", entityID)
	return nil
}

// markModified переводит документ в Modified после постановки изменения
func (m *Manager) markModified(ctx context.Context, change *models.PendingChange) {
	if change.EntityType != models.EntityDocument || change.Operation == models.OpDelete {
		return
	}

	doc, err := m.docs.GetDocument(ctx, change.EntityID)
	if err != nil {
		return
	}
	if doc.SyncStatus == models.SyncStatusModified || doc.SyncStatus == models.SyncStatusConflict {
		return
	}

	doc.SyncStatus = models.SyncStatusModified
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		m.logger.Warn("Failed to mark document modified", "entity_id", change.EntityID, "error", err)
		return
	}

	m.bus.PublishStatusChanged(events.StatusChanged{
		EntityID: change.EntityID,
		Status:   models.SyncStatusModified,
	})
}

// WorkspaceStatus возвращает агрегированный статус синхронизации
// workspace: наиболее тяжелый статус среди его документов
func (m *Manager) WorkspaceStatus(ctx context.Context, workspaceID string) (models.SyncStatus, error) {
	docs, err := m.docs.ListDocuments(ctx, workspaceID)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	statuses := make([]models.SyncStatus, 0, len(docs))
	for _, doc := range docs {
		if doc.Deleted {
			continue
		}
		statuses = append(statuses, doc.SyncStatus)
	}

	return models.WorstStatus(statuses), nil
}
