package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](4)
	assert.True(t, rq.IsEmpty())

	for i := 0; i < 4; i++ {
		rq.Enqueue(i)
	}
	assert.Equal(t, 4, rq.Len())

	for i := 0; i < 4; i++ {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, rq.IsEmpty())

	_, err := rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueGrowsWhenFull(t *testing.T) {
	rq := NewRingQueue[string](2)
	rq.Enqueue("a")
	rq.Enqueue("b")

	// Wrap the read index before forcing growth.
	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	rq.Enqueue("c")
	rq.Enqueue("d")
	rq.Enqueue("e")

	want := []string{"b", "c", "d", "e"}
	for _, w := range want {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, w, v)
	}
}

func TestRingQueuePeek(t *testing.T) {
	rq := NewRingQueue[int](2)
	_, err := rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	rq.Enqueue(7)
	v, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, rq.Len())
}
