// Package events реализует типизированную шину событий между
// компонентами клиента. Каждому событию соответствует собственный
// тип payload, проверяемый компилятором — строковых имен событий
// и нетипизированных полезных нагрузок здесь нет.
package events

import (
	"sync"
	"time"

	"github.com/iudanet/notesync/internal/models"
)

// ChangeEnqueued изменение попало в durable очередь
type ChangeEnqueued struct {
	WorkspaceID string
	EntityID    string
	Operation   models.Operation
	Priority    models.Priority
}

// SyncCompleted завершился проход обработки очереди
type SyncCompleted struct {
	At          time.Time
	WorkspaceID string
	Processed   int
	Failed      int
}

// ConflictDetected обнаружен конфликт версий
type ConflictDetected struct {
	ConflictID string
	EntityID   string
}

// StatusChanged у сущности изменился статус синхронизации
type StatusChanged struct {
	EntityID string
	Status   models.SyncStatus
}

// Bus типизированная шина событий. Обработчики вызываются синхронно
// в порядке подписки; обработчик не должен блокироваться.
type Bus struct {
	changeEnqueued   []func(ChangeEnqueued)
	syncCompleted    []func(SyncCompleted)
	conflictDetected []func(ConflictDetected)
	statusChanged    []func(StatusChanged)
	mu               sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{}
}

// OnChangeEnqueued подписывает обработчик на ChangeEnqueued
func (b *Bus) OnChangeEnqueued(fn func(ChangeEnqueued)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changeEnqueued = append(b.changeEnqueued, fn)
}

// OnSyncCompleted подписывает обработчик на SyncCompleted
func (b *Bus) OnSyncCompleted(fn func(SyncCompleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncCompleted = append(b.syncCompleted, fn)
}

// OnConflictDetected подписывает обработчик на ConflictDetected
func (b *Bus) OnConflictDetected(fn func(ConflictDetected)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conflictDetected = append(b.conflictDetected, fn)
}

// OnStatusChanged подписывает обработчик на StatusChanged
func (b *Bus) OnStatusChanged(fn func(StatusChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusChanged = append(b.statusChanged, fn)
}

// PublishChangeEnqueued публикует событие ChangeEnqueued
func (b *Bus) PublishChangeEnqueued(ev ChangeEnqueued) {
	b.mu.RLock()
	handlers := b.changeEnqueued
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishSyncCompleted публикует событие SyncCompleted
func (b *Bus) PublishSyncCompleted(ev SyncCompleted) {
	b.mu.RLock()
	handlers := b.syncCompleted
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishConflictDetected публикует событие ConflictDetected
func (b *Bus) PublishConflictDetected(ev ConflictDetected) {
	b.mu.RLock()
	handlers := b.conflictDetected
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishStatusChanged публикует событие StatusChanged
func (b *Bus) PublishStatusChanged(ev StatusChanged) {
	b.mu.RLock()
	handlers := b.statusChanged
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
