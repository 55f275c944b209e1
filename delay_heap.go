package petrel

import (
	"container/heap"
	"time"
)

// delayedTask is a task waiting for its deadline in the delay heap.
type delayedTask struct {
	runAt time.Time
	seq   uint64
	task  func()
}

// delayHeap is a min-heap of delayed tasks ordered by deadline, earliest
// first. Deadlines that compare equal fire in insertion order, which seq
// records. It implements heap.Interface and is always used under the
// central queue's mutex.
type delayHeap []*delayedTask

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	if h[i].runAt.Equal(h[j].runAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].runAt.Before(h[j].runAt)
}

func (h delayHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *delayHeap) Push(x any) {
	*h = append(*h, x.(*delayedTask))
}

func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*h = old[0 : n-1]
	return item
}

func (h delayHeap) peek() *delayedTask {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// popHead removes and returns the earliest entry.
func (h *delayHeap) popHead() *delayedTask {
	return heap.Pop(h).(*delayedTask)
}
