// Package netmon отслеживает сетевую доступность и уровень активности
// приложения. Это единственный источник сигналов online/offline для
// остальных компонентов: очередь и планировщик не делают собственных
// проверок сети.
package netmon

import (
	"log/slog"
	"sync"
	"time"
)

// Activity уровень активности приложения.
// Определяет интервал фоновой обработки очереди.
type Activity int

const (
	ActivityActive     Activity = iota // пользователь активно редактирует
	ActivityIdle                       // приложение открыто, но простаивает
	ActivityBackground                 // приложение свернуто/в фоне
)

// String возвращает строковое представление уровня активности
func (a Activity) String() string {
	switch a {
	case ActivityActive:
		return "active"
	case ActivityIdle:
		return "idle"
	case ActivityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Интервалы обработки очереди по уровню активности
const (
	intervalActive     = 15 * time.Second
	intervalIdle       = 2 * time.Minute
	intervalBackground = 10 * time.Minute
)

// Transition описывает переход состояния сети или активности
type Transition struct {
	Online   bool
	Activity Activity
}

// Monitor хранит текущее состояние сети и активности и уведомляет
// подписчиков о переходах. Monitor ничего не знает про очереди
// и сущности.
type Monitor struct {
	logger   *slog.Logger
	subs     map[int]chan Transition
	nextSub  int
	activity Activity
	online   bool
	mu       sync.RWMutex
}

// New creates a new Monitor.
// Начальное состояние — offline/active: до первой успешной проверки
// сети очередь работает в offline режиме.
func New(logger *slog.Logger) *Monitor {
	return &Monitor{
		logger:   logger,
		subs:     make(map[int]chan Transition),
		activity: ActivityActive,
	}
}

// IsOnline возвращает текущее состояние сети
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.online
}

// Activity возвращает текущий уровень активности
func (m *Monitor) Activity() Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.activity
}

// DrainInterval возвращает интервал периодической обработки очереди
// для текущего уровня активности
func (m *Monitor) DrainInterval() time.Duration {
	switch m.Activity() {
	case ActivityActive:
		return intervalActive
	case ActivityIdle:
		return intervalIdle
	default:
		return intervalBackground
	}
}

// SetOnline фиксирует переход online/offline и уведомляет подписчиков
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()

	if m.online == online {
		m.mu.Unlock()
		return
	}

	m.online = online
	transition := Transition{Online: online, Activity: m.activity}
	m.mu.Unlock()

	m.logger.Info("Network state changed", "online", online)
	m.notify(transition)
}

// SetActivity фиксирует смену уровня активности и уведомляет подписчиков
func (m *Monitor) SetActivity(activity Activity) {
	m.mu.Lock()

	if m.activity == activity {
		m.mu.Unlock()
		return
	}

	m.activity = activity
	transition := Transition{Online: m.online, Activity: activity}
	m.mu.Unlock()

	m.logger.Debug("Activity level changed", "activity", activity.String())
	m.notify(transition)
}

// Subscribe возвращает канал переходов и функцию отписки.
// Канал буферизован: медленный подписчик теряет промежуточные
// переходы, но всегда получает последний.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++

	ch := make(chan Transition, 1)
	m.subs[id] = ch

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}

	return ch, unsubscribe
}

// notify рассылает переход всем подписчикам без блокировки
func (m *Monitor) notify(transition Transition) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.subs {
		select {
		case ch <- transition:
		default:
			// Канал занят: вытесняем устаревший переход последним
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- transition:
			default:
			}
		}
	}
}
