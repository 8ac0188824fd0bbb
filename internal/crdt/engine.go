package crdt

import (
	"errors"
	"log/slog"
	"sync"
)

// Ошибки движка
var (
	// ErrDocumentNotEmpty попытка гидратации непустого документа
	ErrDocumentNotEmpty = errors.New("document is not empty")

	// ErrSessionAttached попытка гидратации при активной live-сессии
	ErrSessionAttached = errors.New("live session attached")

	// ErrNoSource нет ни снапшота, ни legacy текста
	ErrNoSource = errors.New("no snapshot or legacy text to hydrate from")

	// ErrDocumentNotFound документ не загружен в движок
	ErrDocumentNotFound = errors.New("document not loaded")
)

// Engine держит по одному mergeable документу на сущность и реализует
// правила гидратации:
//   - gate: гидратация только пустого документа, снапшот никогда
//     не перезаписывает набранный текст;
//   - guard: при подключенной live-сессии снапшоты не читаются —
//     во время сессии снапшот только цель записи;
//   - priority: бинарный снапшот всегда важнее legacy plain text.
type Engine struct {
	docs     map[string]*Doc
	attached map[string]int // счетчик активных live-сессий по сущности
	clock    *LamportClock
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewEngine создает движок с собственными часами устройства
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithClock(logger, NewLamportClock())
}

// NewEngineWithClock создает движок с заданными часами.
// Используется в тестах и при восстановлении node_id после рестарта.
func NewEngineWithClock(logger *slog.Logger, clock *LamportClock) *Engine {
	return &Engine{
		docs:     make(map[string]*Doc),
		attached: make(map[string]int),
		clock:    clock,
		logger:   logger,
	}
}

// Clock возвращает часы устройства
func (e *Engine) Clock() *LamportClock {
	return e.clock
}

// doc возвращает документ сущности, создавая пустой при необходимости.
// Вызывается под e.mu.
func (e *Engine) doc(entityID string) *Doc {
	d, ok := e.docs[entityID]
	if !ok {
		d = NewDoc(e.clock)
		e.docs[entityID] = d
	}
	return d
}

// IsEmpty проверяет, пуст ли документ сущности
func (e *Engine) IsEmpty(entityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.docs[entityID]
	if !ok {
		return true
	}
	return d.IsEmpty()
}

// Hydrate наполняет документ из бинарного снапшота или legacy текста.
// Порядок источников фиксирован: снапшот важнее текста.
func (e *Engine) Hydrate(entityID string, snapshot []byte, legacyText string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attached[entityID] > 0 {
		e.logger.Warn("Hydrate blocked: live session attached", "entity_id", entityID)
		return ErrSessionAttached
	}

	d := e.doc(entityID)
	if !d.IsEmpty() {
		e.logger.Warn("Hydrate blocked: document not empty", "entity_id", entityID)
		return ErrDocumentNotEmpty
	}

	if len(snapshot) > 0 {
		decoded, err := DecodeDoc(snapshot, e.clock)
		if err != nil {
			return err
		}
		e.docs[entityID] = decoded
		e.logger.Debug("Hydrated from snapshot", "entity_id", entityID)
		return nil
	}

	if legacyText != "" {
		d.SetText(legacyText)
		e.logger.Debug("Hydrated from legacy text", "entity_id", entityID)
		return nil
	}

	return ErrNoSource
}

// Encode сериализует документ сущности в бинарный снапшот
func (e *Engine) Encode(entityID string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.docs[entityID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return d.Encode()
}

// SetText применяет локальную правку текста
func (e *Engine) SetText(entityID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc(entityID).SetText(text)
}

// Text возвращает текущий текст документа
func (e *Engine) Text(entityID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.docs[entityID]
	if !ok {
		return ""
	}
	return d.Text()
}

// MergeRemote вливает удаленный снапшот в документ сущности.
// В отличие от Hydrate допустим для непустых документов и во время
// live-сессии: merge не перезаписывает, а объединяет.
func (e *Engine) MergeRemote(entityID string, snapshot []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	remote, err := DecodeDoc(snapshot, e.clock)
	if err != nil {
		return err
	}

	e.doc(entityID).Merge(remote)
	return nil
}

// Replace полностью заменяет состояние документа снапшотом.
// Используется при разрешении конфликта в пользу удаленной версии.
func (e *Engine) Replace(entityID string, snapshot []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	decoded, err := DecodeDoc(snapshot, e.clock)
	if err != nil {
		return err
	}
	e.docs[entityID] = decoded
	return nil
}

// Attach регистрирует live-сессию для сущности.
// Пока счетчик больше нуля, гидратация запрещена.
func (e *Engine) Attach(entityID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.attached[entityID]++
}

// Detach снимает регистрацию live-сессии
func (e *Engine) Detach(entityID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attached[entityID] > 0 {
		e.attached[entityID]--
	}
	if e.attached[entityID] == 0 {
		delete(e.attached, entityID)
	}
}

// Attached возвращает true если у сущности есть активная live-сессия
func (e *Engine) Attached(entityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.attached[entityID] > 0
}

// Drop выгружает документ из памяти движка
func (e *Engine) Drop(entityID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, entityID)
}
