package scheduler

import (
	"container/heap"
	"sync"
)

// queueItem is one queued job. seq breaks priority ties so equal priorities
// dequeue in submission order.
type queueItem struct {
	id       string
	priority int
	seq      uint64
}

type itemHeap []queueItem

func (h itemHeap) Len() int { return len(h) }

// Lower priority value runs first; FIFO among equals.
func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// jobQueue is a blocking priority queue of job ids.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  itemHeap
	seq    uint64
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a job id. Pushing to a closed queue is a no-op.
func (q *jobQueue) Push(id string, priority int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.seq++
	heap.Push(&q.items, queueItem{id: id, priority: priority, seq: q.seq})
	q.cond.Signal()
}

// Pop blocks until an item is available or the queue is closed. The second
// return is false once the queue is closed and drained.
func (q *jobQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	item := heap.Pop(&q.items).(queueItem)
	return item.id, true
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes all blocked Pops. Queued items may still be drained.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
