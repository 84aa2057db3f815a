package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWaitingPool_EnqueueIsIdempotent(t *testing.T) {
	req := require.New(t)
	pool := NewWaitingPool()
	connID := uuid.NewString()

	// When the same connection enqueues twice
	req.True(pool.Enqueue(connID))
	req.False(pool.Enqueue(connID))

	// Then only one entry exists
	req.Equal(1, pool.Len())
}

func TestWaitingPool_DequeuePairIsFIFO(t *testing.T) {
	req := require.New(t)
	pool := NewWaitingPool()

	// Given three participants queued in order
	pool.Enqueue("a")
	pool.Enqueue("b")
	pool.Enqueue("c")

	// When a pair is dequeued
	first, second, ok := pool.DequeuePair()

	// Then the two oldest leave in arrival order
	req.True(ok)
	req.Equal("a", first)
	req.Equal("b", second)
	req.Equal(1, pool.Len())
	req.True(pool.Contains("c"))
}

func TestWaitingPool_DequeuePairNeedsTwo(t *testing.T) {
	req := require.New(t)
	pool := NewWaitingPool()
	pool.Enqueue("alone")

	_, _, ok := pool.DequeuePair()

	req.False(ok)
	req.Equal(1, pool.Len())
	req.True(pool.Contains("alone"))
}

func TestWaitingPool_RemovePreservesOrder(t *testing.T) {
	req := require.New(t)
	pool := NewWaitingPool()
	pool.Enqueue("a")
	pool.Enqueue("b")
	pool.Enqueue("c")

	// When the middle entry cancels
	req.True(pool.Remove("b"))
	req.False(pool.Remove("b"))

	// Then the remaining pair keeps its arrival order
	first, second, ok := pool.DequeuePair()
	req.True(ok)
	req.Equal("a", first)
	req.Equal("c", second)
}

func TestWaitingPool_TracksEnqueueTime(t *testing.T) {
	req := require.New(t)
	pool := NewWaitingPool()
	pool.Enqueue("a")

	_, ok := pool.EnqueuedAt("a")
	req.True(ok)
	_, ok = pool.EnqueuedAt("ghost")
	req.False(ok)
}
