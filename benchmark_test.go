package petrel

import (
	"sync/atomic"
	"testing"
	"time"
)

func BenchmarkSubmit_External(b *testing.B) {
	pool, err := NewPool()
	if err != nil {
		b.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	var counter atomic.Int64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() { counter.Add(1) })
	}
	b.StopTimer()

	for counter.Load() < int64(b.N) {
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkSubmit_ExternalParallel(b *testing.B) {
	pool, err := NewPool()
	if err != nil {
		b.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() { counter.Add(1) })
		}
	})
	b.StopTimer()

	for counter.Load() < int64(b.N) {
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkSubmit_FastPathFanout(b *testing.B) {
	pool, err := NewPool(WithLogger(NopLogger))
	if err != nil {
		b.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	// One seed task fans out b.N tasks from inside the pool, exercising
	// the no-synchronization path into the worker's own ring.
	var counter atomic.Int64

	b.ResetTimer()
	pool.Submit(func() {
		for i := 0; i < b.N; i++ {
			pool.SubmitSubtask(func() { counter.Add(1) })
		}
	})
	for counter.Load() < int64(b.N) {
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkSubmitAfter(b *testing.B) {
	pool, err := NewPool()
	if err != nil {
		b.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	var counter atomic.Int64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.SubmitAfter(time.Microsecond, func() { counter.Add(1) })
	}
	b.StopTimer()

	for counter.Load() < int64(b.N) {
		time.Sleep(time.Millisecond)
	}
}
