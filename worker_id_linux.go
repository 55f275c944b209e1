//go:build linux

package petrel

import "golang.org/x/sys/unix"

// Worker identity on Linux maps the worker's OS thread id to the worker.
// Workers lock themselves to their thread before registering, so the
// mapping is stable for the worker's lifetime and Submit can resolve
// "am I inside this pool?" with a single gettid plus a map lookup.

func (p *Pool) registerWorkerThread(w *worker) any {
	tid := unix.Gettid()
	p.workerHandles.Store(tid, w)
	return tid
}

func (p *Pool) unregisterWorkerThread(key any) {
	p.workerHandles.Delete(key)
}

// currentWorker returns the pool's worker running on the calling thread, or
// nil if the caller is not one of this pool's workers.
func (p *Pool) currentWorker() *worker {
	if v, ok := p.workerHandles.Load(unix.Gettid()); ok {
		return v.(*worker)
	}
	return nil
}
