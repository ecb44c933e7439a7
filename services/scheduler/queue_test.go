package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePriorityOrder(t *testing.T) {
	q := newJobQueue()
	q.Push("low", 10)
	q.Push("high", 1)
	q.Push("mid", 5)

	for _, want := range []string{"high", "mid", "low"} {
		id, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, id)
	}
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := newJobQueue()
	q.Push("first", 3)
	q.Push("second", 3)
	q.Push("third", 3)

	for _, want := range []string{"first", "second", "third"} {
		id, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, id)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := newJobQueue()

	got := make(chan string, 1)
	go func() {
		id, ok := q.Pop()
		if ok {
			got <- id
		}
	}()

	// Give the popper a moment to block.
	time.Sleep(20 * time.Millisecond)
	q.Push("late", 1)

	select {
	case id := <-got:
		assert.Equal(t, "late", id)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after Push")
	}
}

func TestQueueCloseWakesBlockedPop(t *testing.T) {
	q := newJobQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after Close")
	}
}

func TestQueuePushAfterCloseDropped(t *testing.T) {
	q := newJobQueue()
	q.Close()
	q.Push("ghost", 1)
	assert.Zero(t, q.Len())
}
