package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCollectorPollsSnapshot(t *testing.T) {
	var polls atomic.Int64
	c := NewCollector(func() GaugeSnapshot {
		polls.Add(1)
		return GaugeSnapshot{CacheEntries: 3, StaleEntries: 1, ActiveJobs: 2}
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop on context cancellation")
	}

	if polls.Load() < 2 {
		t.Errorf("expected at least 2 polls (initial + ticks), got %d", polls.Load())
	}
}

// Start is a blocking loop, so callers must run it on its own goroutine;
// this pins that contract down.
func TestCollectorStartBlocksUntilStopped(t *testing.T) {
	c := NewCollector(func() GaugeSnapshot { return GaugeSnapshot{} }, time.Hour)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Start returned on its own; it must block until Stop or context cancellation")
	case <-time.After(100 * time.Millisecond):
	}

	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestCollectorStop(t *testing.T) {
	c := NewCollector(func() GaugeSnapshot { return GaugeSnapshot{} }, time.Hour)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
