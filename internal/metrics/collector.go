package metrics

import (
	"context"
	"time"
)

// GaugeSnapshot is one poll of the cache state exported to Prometheus.
type GaugeSnapshot struct {
	CacheEntries int
	StaleEntries int
	ActiveJobs   int
}

// Collector periodically polls cache state and updates Prometheus gauges.
// Counters are incremented at the call sites; only point-in-time gauges need
// the polling loop.
type Collector struct {
	snapshot func() GaugeSnapshot
	interval time.Duration
	stop     chan struct{}
}

// NewCollector creates a collector polling snapshot every interval.
func NewCollector(snapshot func() GaugeSnapshot, interval time.Duration) *Collector {
	return &Collector{
		snapshot: snapshot,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the collection loop. It blocks until Stop is called or the
// context is cancelled.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	snap := c.snapshot()
	CacheEntries.Set(float64(snap.CacheEntries))
	CacheStaleEntries.Set(float64(snap.StaleEntries))
	ActiveFetchJobs.Set(float64(snap.ActiveJobs))
}
