package petrel

import "sync/atomic"

// Stats is a snapshot of pool counters. The counters are read atomically
// one by one and the central queue fields under the central lock, not as a
// single atomic snapshot, so values may be slightly inconsistent with each
// other during concurrent operation.
type Stats struct {
	// Submitted is the total number of tasks accepted by any submit
	// operation, including delayed tasks not yet due.
	Submitted uint64

	// Completed is the total number of tasks that finished execution,
	// including tasks that panicked.
	Completed uint64

	// Stolen is the total number of tasks taken from a foreign ring.
	Stolen uint64

	// Spilled is the total number of fast-path submissions that found the
	// worker's ring full and fell back to the central queue.
	Spilled uint64

	// Dropped is the number of tasks discarded without being invoked when
	// the pool was closed.
	Dropped uint64

	// Failed is the number of tasks that panicked. These are also counted
	// in Completed.
	Failed uint64

	// InFlight is the estimated number of tasks queued or executing:
	// Submitted - Completed - Dropped.
	InFlight uint64

	// Queued is the current central queue length.
	Queued int

	// Delayed is the number of delayed tasks not yet due.
	Delayed int

	// IdleWorkers is the number of workers currently parked.
	IdleWorkers int

	// Workers is the worker count, fixed at construction.
	Workers int

	// Halted reports whether the pool is fully halted.
	Halted bool

	// WorkerStats holds one entry per worker.
	WorkerStats []WorkerStats
}

// WorkerStats describes a single worker.
type WorkerStats struct {
	WorkerID      int
	TasksExecuted uint64
	TasksStolen   uint64
	TasksFailed   uint64

	// QueueDepth is a snapshot of the worker's ring occupancy.
	QueueDepth int

	// State is RUNNING, STEALING, PARKED, or HALTED.
	State string
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	submitted := atomic.LoadUint64(&p.metrics.submitted)
	completed := atomic.LoadUint64(&p.metrics.completed)
	dropped := atomic.LoadUint64(&p.metrics.dropped)

	inFlight := uint64(0)
	if submitted > completed+dropped {
		inFlight = submitted - completed - dropped
	}

	workerStats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		workerStats[i] = WorkerStats{
			WorkerID:      i,
			TasksExecuted: atomic.LoadUint64(&w.tasksExecuted),
			TasksStolen:   atomic.LoadUint64(&w.tasksStolen),
			TasksFailed:   atomic.LoadUint64(&w.tasksFailed),
			QueueDepth:    int(w.queue.size()),
			State:         w.getState().String(),
		}
	}

	c := &p.central
	c.mu.Lock()
	queued := c.fifo.Length()
	delayed := c.delay.Len()
	idle := c.idle
	halted := p.haltReq.Load() && p.haltedWorkers == len(p.workers)
	c.mu.Unlock()

	return Stats{
		Submitted:   submitted,
		Completed:   completed,
		Stolen:      atomic.LoadUint64(&p.metrics.stolen),
		Spilled:     atomic.LoadUint64(&p.metrics.spilled),
		Dropped:     dropped,
		Failed:      atomic.LoadUint64(&p.metrics.failed),
		InFlight:    inFlight,
		Queued:      queued,
		Delayed:     delayed,
		IdleWorkers: idle,
		Workers:     len(p.workers),
		Halted:      halted,
		WorkerStats: workerStats,
	}
}
