package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLamportClock_Tick(t *testing.T) {
	clock := NewLamportClockWithNodeID("node-a")

	assert.Equal(t, int64(1), clock.Tick())
	assert.Equal(t, int64(2), clock.Tick())
	assert.Equal(t, int64(2), clock.Timestamp())
}

func TestLamportClock_Update(t *testing.T) {
	clock := NewLamportClockWithNodeID("node-a")
	clock.Tick()

	// Удаленный timestamp впереди: max(local, remote) + 1
	assert.Equal(t, int64(11), clock.Update(10))

	// Удаленный timestamp позади: просто инкремент
	assert.Equal(t, int64(12), clock.Update(3))
}

func TestDoc_SetTextAndText(t *testing.T) {
	doc := NewDoc(NewLamportClockWithNodeID("node-a"))

	doc.SetText("first line\nsecond line")
	assert.Equal(t, "first line\nsecond line", doc.Text())

	doc.SetText("first line")
	assert.Equal(t, "first line", doc.Text())
}

func TestDoc_IsEmpty(t *testing.T) {
	doc := NewDoc(NewLamportClockWithNodeID("node-a"))
	assert.True(t, doc.IsEmpty())

	doc.SetText("hello")
	assert.False(t, doc.IsEmpty())

	doc.SetText("")
	assert.True(t, doc.IsEmpty())
}

func TestDoc_MergeLWW(t *testing.T) {
	clockA := NewLamportClockWithNodeID("node-a")
	clockB := NewLamportClockWithNodeID("node-b")

	docA := NewDoc(clockA)
	docA.SetText("shared")

	docB := NewDoc(clockB)
	docB.SetText("shared")
	docB.SetText("edited on B") // более поздний timestamp

	docA.Merge(docB)
	assert.Equal(t, "edited on B", docA.Text())
}

func TestDoc_MergeNodeIDTiebreak(t *testing.T) {
	// Одинаковые timestamps: выигрывает лексикографически больший nodeID
	docA := NewDoc(NewLamportClockWithNodeID("node-a"))
	docB := NewDoc(NewLamportClockWithNodeID("node-b"))

	docA.SetText("from A")
	docB.SetText("from B")

	merged := NewDoc(NewLamportClockWithNodeID("node-c"))
	merged.Merge(docA)
	merged.Merge(docB)

	assert.Equal(t, "from B", merged.Text())
}

func TestDoc_MergeCommutative(t *testing.T) {
	docA := NewDoc(NewLamportClockWithNodeID("node-a"))
	docA.SetText("line 1\nline 2")

	docB := NewDoc(NewLamportClockWithNodeID("node-b"))
	docB.SetText("line 1\nline 2\nline 3")

	left := NewDoc(NewLamportClockWithNodeID("node-x"))
	left.Merge(docA)
	left.Merge(docB)

	right := NewDoc(NewLamportClockWithNodeID("node-y"))
	right.Merge(docB)
	right.Merge(docA)

	assert.Equal(t, left.Text(), right.Text())
}

func TestDoc_MergeIdempotent(t *testing.T) {
	docA := NewDoc(NewLamportClockWithNodeID("node-a"))
	docA.SetText("content")

	docB := NewDoc(NewLamportClockWithNodeID("node-b"))
	docB.Merge(docA)
	before := docB.Text()

	docB.Merge(docA)
	assert.Equal(t, before, docB.Text())
}

func TestDoc_MergePreservesTombstones(t *testing.T) {
	clockA := NewLamportClockWithNodeID("node-a")
	docA := NewDoc(clockA)
	docA.SetText("line 1\nline 2")
	docA.SetText("line 1") // line 2 получает tombstone

	docB := NewDoc(NewLamportClockWithNodeID("node-b"))
	docB.Merge(docA)

	assert.Equal(t, "line 1", docB.Text())
}

func TestDoc_EncodeDecodeRoundTrip(t *testing.T) {
	clock := NewLamportClockWithNodeID("node-a")
	doc := NewDoc(clock)
	doc.SetText("alpha\nbeta\ngamma")

	data, err := doc.Encode()
	require.NoError(t, err)

	restoredClock := NewLamportClockWithNodeID("node-a")
	restored, err := DecodeDoc(data, restoredClock)
	require.NoError(t, err)

	assert.Equal(t, doc.Text(), restored.Text())
	// Часы подтянуты до снапшота
	assert.GreaterOrEqual(t, restoredClock.Timestamp(), clock.Timestamp())
}

func TestDecodeDoc_Garbage(t *testing.T) {
	_, err := DecodeDoc([]byte("not json"), NewLamportClockWithNodeID("node-a"))
	assert.Error(t, err)
}

func TestDoc_MergeAdvancesClock(t *testing.T) {
	clockA := NewLamportClockWithNodeID("node-a")
	docA := NewDoc(clockA)

	clockB := NewLamportClockWithNodeID("node-b")
	docB := NewDoc(clockB)
	for i := 0; i < 5; i++ {
		docB.SetText("edit")
		docB.SetText("edit " + string(rune('a'+i)))
	}

	docA.Merge(docB)

	// Следующая локальная правка на A упорядочена после правок B
	assert.Greater(t, clockA.Tick(), clockB.Timestamp()-1)
}
