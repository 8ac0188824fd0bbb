package syncqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	fired := 0

	// Серия вызовов одного ключа внутри окна
	for i := 0; i < 5; i++ {
		d.Debounce("doc-1", func() {
			mu.Lock()
			fired++
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	fired := map[string]int{}

	for _, key := range []string{"doc-1", "doc-2"} {
		key := key
		d.Debounce(key, func() {
			mu.Lock()
			fired[key]++
			mu.Unlock()
		})
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired["doc-1"])
	assert.Equal(t, 1, fired["doc-2"])
}

func TestDebouncer_FlushCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var mu sync.Mutex
	fired := 0

	d.Debounce("doc-1", func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	d.Flush()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, fired)
}
