package petrel

import (
	"sync"

	"github.com/eapache/queue"
)

// centralQueue is the slow path: an unbounded FIFO of tasks submitted from
// outside the pool or spilled from full worker rings, plus the delay heap.
// Both structures share one mutex and one condition variable. Parked workers
// wait on cond; every enqueue bumps wakeGen and signals, which closes the
// lost-wakeup race against a worker that is about to park.
type centralQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	fifo *queue.Queue // of func()

	delay    delayHeap
	delaySeq uint64

	// wakeGen is incremented on every wakeup so a parker that raced an
	// enqueue between its final check and its wait can tell the difference.
	wakeGen uint64

	// idle counts workers currently parked on cond.
	idle int
}

func (c *centralQueue) init() {
	c.cond = sync.NewCond(&c.mu)
	c.fifo = queue.New()
}

// submit appends a task and wakes one parked worker.
func (c *centralQueue) submit(task func()) {
	c.mu.Lock()
	c.fifo.Add(task)
	c.wakeGen++
	c.cond.Signal()
	c.mu.Unlock()
}

// drainInto moves up to max tasks into the caller's ring under a single lock
// acquisition. Only the ring's owner may call it. Returns the number moved.
func (c *centralQueue) drainInto(q *ringQueue, max int) int {
	c.mu.Lock()
	n := 0
	for n < max && c.fifo.Length() > 0 {
		// Thieves can only shrink the ring, so a successful push cannot be
		// invalidated before Remove.
		if !q.push(c.fifo.Peek().(func())) {
			break
		}
		c.fifo.Remove()
		n++
	}
	c.mu.Unlock()
	return n
}

// wake bumps the generation and wakes every waiter. Used by halt, resume,
// and teardown, where a single Signal could land on the wrong waiter.
func (c *centralQueue) wake() {
	c.mu.Lock()
	c.wakeGen++
	c.cond.Broadcast()
	c.mu.Unlock()
}
