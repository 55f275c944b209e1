//go:build !linux

package petrel

import (
	"bytes"
	"runtime"
	"strconv"
)

// Worker identity without a cheap thread id: key the registry by goroutine
// id instead. Parsing the id out of the stack header is slower than gettid,
// but it only runs on the submit path of platforms without one, and the
// semantics are identical.

// goroutineID extracts the current goroutine's id from the runtime stack
// header ("goroutine N [running]: ...").
func goroutineID() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, _ := strconv.ParseUint(string(s), 10, 64)
	return id
}

func (p *Pool) registerWorkerThread(w *worker) any {
	id := goroutineID()
	p.workerHandles.Store(id, w)
	return id
}

func (p *Pool) unregisterWorkerThread(key any) {
	p.workerHandles.Delete(key)
}

// currentWorker returns the pool's worker running on the calling goroutine,
// or nil if the caller is not one of this pool's workers.
func (p *Pool) currentWorker() *worker {
	if v, ok := p.workerHandles.Load(goroutineID()); ok {
		return v.(*worker)
	}
	return nil
}
