package syncqueue

import (
	"sync"
	"time"
)

// Debouncer откладывает действие по ключу: серия вызовов с одним ключом
// внутри окна схлопывается в один запуск после паузы. Автосохранение
// редактора дергает Debounce на каждое нажатие, а в очередь изменение
// встает один раз на паузу в наборе.
type Debouncer struct {
	timers map[string]*time.Timer
	delay  time.Duration
	mu     sync.Mutex
}

// NewDebouncer creates a new Debouncer with the given delay window
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		timers: make(map[string]*time.Timer),
		delay:  delay,
	}
}

// Debounce планирует fn по ключу, сбрасывая уже ожидающий запуск
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}

	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()

		fn()
	})
}

// Flush немедленно отменяет все ожидающие запуски без выполнения.
// Вызывается при остановке клиента: накопленное уже лежит в durable
// очереди, потерь нет.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
