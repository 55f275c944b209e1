// Package petrel provides a fine-grained work-stealing task pool for Go.
//
// Petrel targets workloads decomposed into many short, non-returning tasks,
// where per-task scheduling overhead must stay negligible compared to the
// task body. Each worker owns a bounded lock-free ring; a task submitted
// from a worker goes into that worker's own ring with no cross-thread
// synchronization, and idle workers steal the oldest work from their peers.
// Tasks submitted from outside the pool, and tasks spilled from full rings,
// go through a mutex-protected central queue.
//
// # Quick start
//
//	pool, err := petrel.NewPool()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	pool.Submit(func() {
//	    // Tasks may submit further work; from here this takes the
//	    // fast path into the worker's own ring.
//	    pool.SubmitSubtask(func() { /* ... */ })
//	})
//
//	// Run a task two seconds from now, or at an absolute time.
//	pool.SubmitAfter(2*time.Second, func() { /* ... */ })
//	pool.SubmitAt(deadline, func() { /* ... */ })
//
// # Scheduling model
//
// Tasks are nullary functions called at most once; the pool owns a task
// from submit until it starts. There are no task results, no awaiting, and
// no per-task cancellation. Execution of a task happens-after the submit
// call that enqueued it, so writes made before submitting are visible to
// the task body without further synchronization. No ordering is guaranteed
// between distinct tasks.
//
// Tasks submitted with Submit are guaranteed to run eventually as long as
// the pool is not halted and at least one running task keeps making
// progress. SubmitSubtask trades that guarantee for depth-first execution:
// a subtask is treated as part of the task that spawned it and inherits its
// liveness.
//
// # Blocking and deadlock
//
// A task runs to completion on its worker; there is no preemption point
// inside a task. If Concurrency() or more tasks block simultaneously on
// something only another queued task can produce, the pool deadlocks.
// Construct tasks so that at least one active task always makes progress.
//
// # Halt and resume
//
// Halt suspends execution without discarding queued work: workers finish
// their current task and park until Resume. Submissions during a halt are
// accepted and run after the next Resume. Close discards every task that
// has not started.
//
// # Capacity
//
// Each worker ring holds WorkerCapacity() tasks. The ring size is a power of
// two fixed at build time (log2WorkerQueueCapacity), and one slot stays
// empty, so WorkerCapacity() is one less than that size. Overflow is not an
// error: the submission spills to the central queue, and the first spill is
// reported once through the configured Logger.
package petrel
