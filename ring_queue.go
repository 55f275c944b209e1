package petrel

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Worker queue geometry is fixed at build time. Each worker's ring holds at
// most workerQueueCapacity-1 tasks; one slot stays empty so that a full ring
// can be told apart from an empty one. Edit log2WorkerQueueCapacity to
// rebuild with a different capacity.
const (
	log2WorkerQueueCapacity = 8
	workerQueueCapacity     = 1 << log2WorkerQueueCapacity
	workerQueueMask         = workerQueueCapacity - 1
)

// ringQueue is a bounded Chase-Lev work-stealing deque.
//
// The owning worker pushes and pops at the tail (LIFO - newest tasks first),
// any other worker steals from the head (FIFO - oldest tasks first). tail is
// written only by the owner; head is advanced by CAS, by thieves and by the
// owner when it races a thief for the last element.
//
// Every publication of a task pairs the atomic store of tail on the producer
// side with the atomic load of tail on the consumer side, so invocation of a
// task happens-after the push that enqueued it.
type ringQueue struct {
	_ cpu.CacheLinePad

	// head is the steal end, incremented by thieves via CAS.
	head int64

	_ cpu.CacheLinePad

	// tail is the owner end. Only the owning worker writes it.
	tail int64

	_ cpu.CacheLinePad

	buffer [workerQueueCapacity]func()
}

// push appends a task at the tail. Owner only.
// Returns false if the ring is full; the caller then spills to the central
// queue.
func (q *ringQueue) push(task func()) bool {
	tail := atomic.LoadInt64(&q.tail)
	head := atomic.LoadInt64(&q.head)

	if tail-head >= workerQueueCapacity-1 {
		return false
	}

	q.buffer[tail&workerQueueMask] = task

	// The atomic store of tail publishes the slot write to thieves.
	atomic.StoreInt64(&q.tail, tail+1)
	return true
}

// pop removes the newest task from the tail. Owner only, LIFO.
// Returns nil if the ring is empty or a thief won the last element.
func (q *ringQueue) pop() func() {
	// Speculatively claim the tail slot.
	tail := atomic.LoadInt64(&q.tail) - 1
	atomic.StoreInt64(&q.tail, tail)

	head := atomic.LoadInt64(&q.head)

	if head > tail {
		// Empty; undo the speculative decrement.
		atomic.StoreInt64(&q.tail, tail+1)
		return nil
	}

	task := q.buffer[tail&workerQueueMask]

	if head == tail {
		// Last element: a thief may be claiming it concurrently. The CAS on
		// head decides the winner; the loser sees nil.
		if !atomic.CompareAndSwapInt64(&q.head, head, head+1) {
			task = nil
		}
		atomic.StoreInt64(&q.tail, tail+1)
		return task
	}

	// More than one element left: the slot cannot be observed by a thief,
	// so clear it to release the closure.
	q.buffer[tail&workerQueueMask] = nil
	return task
}

// steal removes the oldest task from the head. Safe to call from any worker.
// Returns nil if the ring is empty or the claim was lost to a concurrent
// pop or steal; callers treat both as a miss and move to the next victim.
func (q *ringQueue) steal() func() {
	head := atomic.LoadInt64(&q.head)
	tail := atomic.LoadInt64(&q.tail)

	if head >= tail {
		return nil
	}

	task := q.buffer[head&workerQueueMask]

	// Claim the slot. While head is unchanged the owner cannot have
	// overwritten it (pushes stay strictly below head+capacity-1), so a
	// successful CAS means task is the value that was published there.
	if !atomic.CompareAndSwapInt64(&q.head, head, head+1) {
		return nil
	}
	return task
}

// size returns a snapshot of the number of queued tasks. It may be stale
// immediately under concurrent steals.
func (q *ringQueue) size() int64 {
	tail := atomic.LoadInt64(&q.tail)
	head := atomic.LoadInt64(&q.head)

	if tail < head {
		return 0
	}
	return tail - head
}

func (q *ringQueue) isEmpty() bool {
	return q.size() == 0
}
