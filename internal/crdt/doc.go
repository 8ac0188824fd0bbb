package crdt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Block один блок (строка) текста документа.
// Блоки адресуются стабильными ключами по позиции, конфликтующие
// правки одного блока разрешаются по LWW.
type Block struct {
	Key       string `json:"key"`  // стабильный ключ блока
	Text      string `json:"text"` // содержимое строки
	Timestamp int64  `json:"timestamp"`
	NodeID    string `json:"node_id"`
	Deleted   bool   `json:"deleted"` // tombstone: блок удален, но участвует в merge
}

// isNewerThan применяет правило LWW: больший timestamp выигрывает,
// при равных — лексикографически больший nodeID (детерминизм).
func (b *Block) isNewerThan(other *Block) bool {
	if b.Timestamp != other.Timestamp {
		return b.Timestamp > other.Timestamp
	}
	return b.NodeID > other.NodeID
}

// Doc представляет mergeable документ: набор блоков с LWW разрешением
// конфликтов на уровне блока. Операции Merge коммутативны и
// идемпотентны, поэтому порядок доставки снапшотов не важен.
type Doc struct {
	blocks map[string]*Block
	clock  *LamportClock
	mu     sync.RWMutex
}

// snapshot сериализуемое представление документа
type snapshot struct {
	Blocks []*Block `json:"blocks"`
	Clock  int64    `json:"clock"`
}

// NewDoc создает пустой документ, привязанный к часам устройства
func NewDoc(clock *LamportClock) *Doc {
	return &Doc{
		blocks: make(map[string]*Block),
		clock:  clock,
	}
}

// blockKey детерминированный ключ блока по его позиции в тексте
func blockKey(index int) string {
	return fmt.Sprintf("b%06d", index)
}

// SetText заменяет текст документа, выпуская новую LWW версию каждого
// изменившегося блока. Исчезнувшие блоки помечаются tombstone.
func (d *Doc) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := []string{}
	if text != "" {
		lines = strings.Split(text, "\n")
	}

	seen := make(map[string]bool, len(lines))

	for i, line := range lines {
		key := blockKey(i)
		seen[key] = true

		existing, ok := d.blocks[key]
		if ok && !existing.Deleted && existing.Text == line {
			continue // блок не изменился, новая версия не нужна
		}

		d.blocks[key] = &Block{
			Key:       key,
			Text:      line,
			Timestamp: d.clock.Tick(),
			NodeID:    d.clock.NodeID(),
		}
	}

	// Tombstone для блоков, которых больше нет в тексте
	for key, block := range d.blocks {
		if seen[key] || block.Deleted {
			continue
		}
		d.blocks[key] = &Block{
			Key:       key,
			Timestamp: d.clock.Tick(),
			NodeID:    d.clock.NodeID(),
			Deleted:   true,
		}
	}
}

// Text собирает текущий текст документа из неудаленных блоков
func (d *Doc) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.blocks))
	for key, block := range d.blocks {
		if !block.Deleted {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, d.blocks[key].Text)
	}

	return strings.Join(lines, "\n")
}

// IsEmpty возвращает true если документ не содержит живых блоков
// с непустым текстом
func (d *Doc) IsEmpty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, block := range d.blocks {
		if !block.Deleted && block.Text != "" {
			return false
		}
	}
	return true
}

// Merge объединяет документ с удаленным снапшотом тех же блоков.
// Для каждого блока побеждает LWW версия. Часы устройства
// подтягиваются до максимального увиденного timestamp.
func (d *Doc) Merge(other *Doc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	other.mu.RLock()
	defer other.mu.RUnlock()

	for key, remote := range other.blocks {
		existing, ok := d.blocks[key]
		if !ok || remote.isNewerThan(existing) {
			clone := *remote
			d.blocks[key] = &clone
		}

		if remote.Timestamp > d.clock.Timestamp() {
			d.clock.Update(remote.Timestamp)
		}
	}
}

// Encode сериализует документ в бинарный снапшот (канонический JSON,
// блоки отсортированы по ключу).
func (d *Doc) Encode() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.blocks))
	for key := range d.blocks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snap := snapshot{
		Blocks: make([]*Block, 0, len(keys)),
		Clock:  d.clock.Timestamp(),
	}
	for _, key := range keys {
		clone := *d.blocks[key]
		snap.Blocks = append(snap.Blocks, &clone)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	return data, nil
}

// DecodeDoc восстанавливает документ из бинарного снапшота
func DecodeDoc(data []byte, clock *LamportClock) (*Doc, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode document snapshot: %w", err)
	}

	doc := NewDoc(clock)
	for _, block := range snap.Blocks {
		doc.blocks[block.Key] = block
	}

	if snap.Clock > clock.Timestamp() {
		clock.Update(snap.Clock)
	}

	return doc, nil
}
