package syncqueue

import (
	"context"
	"errors"
	"time"
)

// Период фоновой чистки протухших записей
const cleanupInterval = time.Hour

// Run запускает планировщик обработки очереди и блокируется до отмены
// контекста.
//
// Проход запускается:
//   - периодически, с интервалом по уровню активности (active чаще,
//     background реже);
//   - немедленно при переходе offline→online;
//   - немедленно по Kick после постановки изменения при живой сети.
//
// Ошибка аутентификации не роняет планировщик: очередь копится,
// обработка возобновится после повторного login.
func (m *Manager) Run(ctx context.Context) error {
	transitions, unsubscribe := m.monitor.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(m.monitor.DrainInterval())
	defer ticker.Stop()

	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	m.logger.Info("Queue scheduler started", "interval", m.monitor.DrainInterval())

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Queue scheduler stopped")
			return ctx.Err()

		case transition, ok := <-transitions:
			if !ok {
				return nil
			}
			// Интервал следует за уровнем активности
			ticker.Reset(m.monitor.DrainInterval())
			if transition.Online {
				m.drain(ctx)
			}

		case <-m.kick:
			m.drain(ctx)

		case <-ticker.C:
			m.drain(ctx)

		case <-cleanup.C:
			if err := m.CleanupStale(ctx); err != nil {
				m.logger.Warn("Stale cleanup failed", "error", err)
			}
		}
	}
}

// drain выполняет один проход по всей очереди, не прерывая планировщик
// при ошибках
func (m *Manager) drain(ctx context.Context) {
	err := m.ProcessQueue(ctx, "")
	switch {
	case err == nil:
	case errors.Is(err, ErrNotAuthenticated):
		m.logger.Debug("Queue pass skipped: not authenticated")
	case errors.Is(err, context.Canceled):
	default:
		m.logger.Warn("Queue pass failed", "error", err)
	}
}
