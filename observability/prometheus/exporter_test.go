package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/petrel-pool/petrel"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type staticProvider struct {
	stats petrel.Stats
}

func (s staticProvider) Stats() petrel.Stats { return s.stats }

func TestNewExporter_RegistersCollectors(t *testing.T) {
	reg := prom.NewRegistry()

	if _, err := NewExporter(reg, time.Second); err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	// Registering against the same registry again must reuse the existing
	// collectors instead of failing.
	if _, err := NewExporter(reg, time.Second); err != nil {
		t.Fatalf("NewExporter() on reused registry error = %v", err)
	}
}

func TestExporter_CollectsSnapshot(t *testing.T) {
	reg := prom.NewRegistry()

	exporter, err := NewExporter(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	exporter.AddPool("main", staticProvider{stats: petrel.Stats{
		Submitted: 42,
		Completed: 40,
		Stolen:    7,
		Queued:    2,
		Delayed:   1,
		Workers:   4,
		Halted:    true,
	}})

	exporter.Start(context.Background())
	defer exporter.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(exporter.submitted.WithLabelValues("main")) == 42 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	checks := []struct {
		name  string
		gauge *prom.GaugeVec
		want  float64
	}{
		{"tasks_submitted", exporter.submitted, 42},
		{"tasks_completed", exporter.completed, 40},
		{"tasks_stolen", exporter.stolen, 7},
		{"central_queue_depth", exporter.queued, 2},
		{"delay_heap_depth", exporter.delayed, 1},
		{"workers", exporter.workers, 4},
		{"halted", exporter.halted, 1},
	}

	for _, c := range checks {
		if got := testutil.ToFloat64(c.gauge.WithLabelValues("main")); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestExporter_LivePool(t *testing.T) {
	pool, err := petrel.NewPool(petrel.WithConcurrency(2))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	reg := prom.NewRegistry()
	exporter, err := NewExporter(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	// *petrel.Pool satisfies PoolSnapshotProvider directly.
	exporter.AddPool("live", pool)
	exporter.Start(context.Background())
	defer exporter.Stop()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	<-done

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(exporter.workers.WithLabelValues("live")) == 2 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("Exporter never observed the live pool's worker count")
}

func TestExporter_StopIsIdempotent(t *testing.T) {
	exporter, err := NewExporter(prom.NewRegistry(), time.Second)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	exporter.Start(context.Background())
	exporter.Stop()
	exporter.Stop()
	exporter.Start(context.Background())
	exporter.Stop()
}
