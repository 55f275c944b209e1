// Package prometheus exports petrel pool statistics as Prometheus metrics.
//
// The exporter polls Stats() snapshots on an interval rather than hooking
// the pool's hot paths, so instrumentation adds no cost to task scheduling.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petrel-pool/petrel"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current pool stats snapshots.
// *petrel.Pool satisfies it.
type PoolSnapshotProvider interface {
	Stats() petrel.Stats
}

// Exporter periodically exports pool Stats() snapshots into Prometheus
// collectors.
type Exporter struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	submitted *prom.GaugeVec
	completed *prom.GaugeVec
	stolen    *prom.GaugeVec
	spilled   *prom.GaugeVec
	dropped   *prom.GaugeVec
	failed    *prom.GaugeVec
	inFlight  *prom.GaugeVec
	queued    *prom.GaugeVec
	delayed   *prom.GaugeVec
	idle      *prom.GaugeVec
	workers   *prom.GaugeVec
	halted    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewExporter creates an exporter and registers its collectors. A nil
// registerer falls back to the default registerer; a non-positive interval
// falls back to one second.
func NewExporter(reg prom.Registerer, interval time.Duration) (*Exporter, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	e := &Exporter{
		interval: interval,
		pools:    make(map[string]PoolSnapshotProvider),
	}

	gauges := []struct {
		dst  **prom.GaugeVec
		name string
		help string
	}{
		{&e.submitted, "tasks_submitted", "Total tasks submitted to the pool."},
		{&e.completed, "tasks_completed", "Total tasks that finished execution."},
		{&e.stolen, "tasks_stolen", "Total tasks taken from a foreign worker ring."},
		{&e.spilled, "tasks_spilled", "Total fast-path submissions spilled to the central queue."},
		{&e.dropped, "tasks_dropped", "Tasks discarded without running at pool close."},
		{&e.failed, "tasks_failed", "Total tasks that panicked."},
		{&e.inFlight, "tasks_in_flight", "Tasks currently queued or executing."},
		{&e.queued, "central_queue_depth", "Current central queue length."},
		{&e.delayed, "delay_heap_depth", "Delayed tasks not yet due."},
		{&e.idle, "workers_idle", "Workers currently parked."},
		{&e.workers, "workers", "Worker count."},
		{&e.halted, "halted", "Pool halted state (1=halted, 0=running)."},
	}

	for _, g := range gauges {
		vec := prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "petrel",
			Name:      g.name,
			Help:      g.help,
		}, []string{"pool"})
		registered, err := registerCollector(reg, vec)
		if err != nil {
			return nil, err
		}
		*g.dst = registered
	}

	return e, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (e *Exporter) AddPool(name string, provider PoolSnapshotProvider) {
	if e == nil || provider == nil {
		return
	}
	if name == "" {
		name = "pool"
	}
	e.poolsMu.Lock()
	e.pools[name] = provider
	e.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (e *Exporter) Start(ctx context.Context) {
	if e == nil {
		return
	}

	e.stateMu.Lock()
	if e.running {
		e.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.stateMu.Unlock()

	go e.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (e *Exporter) Stop() {
	if e == nil {
		return
	}

	e.stateMu.Lock()
	if !e.running {
		e.stateMu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.stateMu.Unlock()

	cancel()
	<-done

	e.stateMu.Lock()
	e.running = false
	e.cancel = nil
	e.done = nil
	e.stateMu.Unlock()
}

func (e *Exporter) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.collectOnce()
		}
	}
}

func (e *Exporter) collectOnce() {
	e.poolsMu.RLock()
	defer e.poolsMu.RUnlock()

	for name, provider := range e.pools {
		stats := provider.Stats()
		e.submitted.WithLabelValues(name).Set(float64(stats.Submitted))
		e.completed.WithLabelValues(name).Set(float64(stats.Completed))
		e.stolen.WithLabelValues(name).Set(float64(stats.Stolen))
		e.spilled.WithLabelValues(name).Set(float64(stats.Spilled))
		e.dropped.WithLabelValues(name).Set(float64(stats.Dropped))
		e.failed.WithLabelValues(name).Set(float64(stats.Failed))
		e.inFlight.WithLabelValues(name).Set(float64(stats.InFlight))
		e.queued.WithLabelValues(name).Set(float64(stats.Queued))
		e.delayed.WithLabelValues(name).Set(float64(stats.Delayed))
		e.idle.WithLabelValues(name).Set(float64(stats.IdleWorkers))
		e.workers.WithLabelValues(name).Set(float64(stats.Workers))
		if stats.Halted {
			e.halted.WithLabelValues(name).Set(1)
		} else {
			e.halted.WithLabelValues(name).Set(0)
		}
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
