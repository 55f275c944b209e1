package petrel

import (
	"container/heap"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Pool is a fixed-size work-stealing task pool. It owns its workers, the
// central queue, and the delay heap; it is not safe to copy after creation.
//
// Submission from a worker thread of the same pool takes the fast path into
// that worker's own ring; all other submissions go through the central
// queue. Execution of a task happens-after the submit call that enqueued it.
type Pool struct {
	conf    Config
	workers []*worker

	central centralQueue

	// haltCond shares the central mutex; halt() callers and halted workers
	// wait on it.
	haltCond      *sync.Cond
	haltedWorkers int // guarded by central.mu

	// Lifecycle flags. stopped is terminal; haltReq toggles with
	// Halt/Resume.
	stopped atomic.Bool
	haltReq atomic.Bool

	// idleWorkers mirrors central.idle so the submit fast path can decide
	// whether to wake anyone without taking the lock.
	idleWorkers atomic.Int32

	// workerHandles maps thread (or goroutine) identity to *worker.
	workerHandles sync.Map

	delayWake chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup

	spillOnce sync.Once

	metrics poolMetrics
}

// poolMetrics tracks pool-wide counters, all atomic.
type poolMetrics struct {
	submitted uint64
	completed uint64
	stolen    uint64
	spilled   uint64
	dropped   uint64
	failed    uint64
}

// NewPool creates a pool and starts its workers. With no options the worker
// count is runtime.NumCPU().
//
// Example:
//
//	pool, err := petrel.NewPool(petrel.WithConcurrency(4))
func NewPool(opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultConfig().Logger
	}

	n := cfg.Concurrency
	if n == 0 {
		n = runtime.NumCPU()
	}

	p := &Pool{
		conf:      cfg,
		workers:   make([]*worker, n),
		delayWake: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	p.central.init()
	p.haltCond = sync.NewCond(&p.central.mu)

	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.timerLoop()
	}()

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(wk *worker) {
			defer p.wg.Done()
			wk.run()
		}(w)
	}

	return p, nil
}

// Submit schedules a task for asynchronous execution. The task is called at
// most once; the pool owns it from here until it starts.
//
// From one of the pool's own workers the task goes into that worker's ring
// without cross-thread synchronization, spilling to the central queue when
// the ring is full. From any other goroutine it goes through the central
// queue. Either way, a parked worker is woken if one exists.
func (p *Pool) Submit(task func()) error {
	return p.submit(task, true)
}

// SubmitSubtask schedules a task that is treated as part of the currently
// running task. From outside a worker it is identical to Submit. From a
// worker, the task lands at the LIFO end of that worker's ring and no other
// worker is woken for it, which encourages depth-first execution and keeps
// peak ring occupancy low for recursive spawns.
//
// Subtasks inherit the liveness of their parent: if the parent never
// finishes, no non-starvation guarantee applies to them.
func (p *Pool) SubmitSubtask(task func()) error {
	return p.submit(task, false)
}

func (p *Pool) submit(task func(), wake bool) error {
	if task == nil {
		return ErrNilTask
	}
	if p.stopped.Load() {
		return ErrPoolClosed
	}

	atomic.AddUint64(&p.metrics.submitted, 1)

	if w := p.currentWorker(); w != nil {
		if w.queue.push(task) {
			if wake {
				p.wakeOne()
			}
			return nil
		}
		atomic.AddUint64(&p.metrics.spilled, 1)
		p.spillOnce.Do(func() {
			if l := p.conf.Logger; l != nil {
				l.Printf("worker %d ring full (capacity %d); spilling to central queue",
					w.id, workerQueueCapacity-1)
			}
		})
	}

	p.central.submit(task)
	return nil
}

// SubmitAfter schedules a task to run once the given delay has elapsed. A
// non-positive delay degenerates to Submit. Delayed tasks cannot be
// cancelled before they fire; deadlines that compare equal fire in
// submission order.
func (p *Pool) SubmitAfter(delay time.Duration, task func()) error {
	if task == nil {
		return ErrNilTask
	}
	if delay <= 0 {
		return p.Submit(task)
	}
	if p.stopped.Load() {
		return ErrPoolClosed
	}

	atomic.AddUint64(&p.metrics.submitted, 1)

	c := &p.central
	c.mu.Lock()
	c.delaySeq++
	entry := &delayedTask{
		runAt: time.Now().Add(delay),
		seq:   c.delaySeq,
		task:  task,
	}
	heap.Push(&c.delay, entry)
	preempt := c.delay.peek() == entry
	c.mu.Unlock()

	if preempt {
		// New earliest deadline; interrupt the monitor's current wait.
		select {
		case p.delayWake <- struct{}{}:
		default:
		}
	}
	return nil
}

// SubmitAt schedules a task to run at (or as soon as possible after) the
// given time. The time point is converted to a delay relative to now at
// submit time.
func (p *Pool) SubmitAt(t time.Time, task func()) error {
	return p.SubmitAfter(time.Until(t), task)
}

// wakeOne wakes a parked worker if any exists. The idle counter is checked
// without the lock so an uncontended fast-path submit stays lock-free.
func (p *Pool) wakeOne() {
	if p.idleWorkers.Load() == 0 {
		return
	}
	c := &p.central
	c.mu.Lock()
	c.wakeGen++
	c.cond.Signal()
	c.mu.Unlock()
}

// Concurrency returns the number of worker threads in the pool, constant
// after construction. If Concurrency() or more tasks block simultaneously,
// the entire pool is blocked and no further progress is made.
func (p *Pool) Concurrency() int {
	return len(p.workers)
}

// WorkerCapacity returns the number of tasks each worker can hold in its
// own ring before scheduling from that worker takes the slow path. It is a
// build-time constant.
func (p *Pool) WorkerCapacity() int {
	return workerQueueCapacity - 1
}

// IsIdle reports whether every worker is simultaneously parked and the
// central queue and delay heap are empty. Called from within one of the
// pool's own tasks it necessarily returns false. While the pool is halted
// the result is unspecified.
func (p *Pool) IsIdle() bool {
	if p.currentWorker() != nil {
		return false
	}

	c := &p.central
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle == len(p.workers) && c.fifo.Length() == 0 && c.delay.Len() == 0
}

// Halt suspends task execution: every worker finishes its current task,
// reports Halted, and parks until Resume or Close. Halt blocks until every
// worker has quiesced. Called from within one of the pool's own tasks it
// returns once every *other* worker is halted; the calling worker halts
// itself when the current task finishes. Queued tasks are not discarded.
func (p *Pool) Halt() error {
	if p.stopped.Load() {
		return ErrPoolClosed
	}
	p.haltReq.Store(true)
	p.central.wake()

	target := len(p.workers)
	if p.currentWorker() != nil {
		target--
	}

	c := &p.central
	c.mu.Lock()
	for p.haltedWorkers < target && p.haltReq.Load() && !p.stopped.Load() {
		p.haltCond.Wait()
	}
	c.mu.Unlock()
	return nil
}

// Resume reactivates a halted pool. Tasks queued while halted, and delayed
// tasks that came due in the meantime, run again. Resuming a pool that is
// not halted is a no-op.
func (p *Pool) Resume() error {
	if p.stopped.Load() {
		return ErrPoolClosed
	}
	p.haltReq.Store(false)

	c := &p.central
	c.mu.Lock()
	c.wakeGen++
	c.cond.Broadcast()
	p.haltCond.Broadcast()
	c.mu.Unlock()
	return nil
}

// IsHalted reports whether halting was requested and every worker has
// quiesced. Called from within one of the pool's own tasks it necessarily
// returns false.
func (p *Pool) IsHalted() bool {
	if !p.haltReq.Load() {
		return false
	}
	c := &p.central
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.haltedWorkers == len(p.workers)
}

// Close stops the pool and joins its workers. Tasks already executing run
// to completion; tasks still queued anywhere - rings, central queue, or
// delay heap - are discarded without being invoked and counted as dropped.
// Close is idempotent. Closing the pool from within one of its own tasks
// deadlocks and is not defensively checked.
func (p *Pool) Close() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}

	close(p.stopCh)
	p.central.wake()

	c := &p.central
	c.mu.Lock()
	p.haltCond.Broadcast()
	c.mu.Unlock()

	p.wg.Wait()

	// Forget whatever never started.
	dropped := uint64(0)
	c.mu.Lock()
	dropped += uint64(c.fifo.Length() + c.delay.Len())
	for c.fifo.Length() > 0 {
		c.fifo.Remove()
	}
	c.delay = nil
	c.mu.Unlock()

	for _, w := range p.workers {
		dropped += uint64(w.queue.size())
	}
	atomic.AddUint64(&p.metrics.dropped, dropped)
}
