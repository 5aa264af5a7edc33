package dashboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/school-dashboard/internal/logger"
	"github.com/onnwee/school-dashboard/internal/metrics"
)

// AutoRefresh drives periodic forced refreshes for keys with a configured
// interval. The loop only runs while at least one key is enabled: it starts
// on the first Enable and stops itself when the last key is disabled.
type AutoRefresh struct {
	store   *Store
	refresh func(key string)
	tick    time.Duration

	mu        sync.Mutex
	intervals map[string]time.Duration
	stop      chan struct{}
	running   bool
	log       *slog.Logger
}

// NewAutoRefresh creates a ticker calling refresh for due keys every tick.
func NewAutoRefresh(store *Store, refresh func(key string), tick time.Duration) *AutoRefresh {
	if tick <= 0 {
		tick = time.Second
	}
	return &AutoRefresh{
		store:     store,
		refresh:   refresh,
		tick:      tick,
		intervals: make(map[string]time.Duration),
		log:       logger.WithComponent("autorefresh"),
	}
}

// Enable schedules key for refresh every interval, starting the loop if it
// is not already running.
func (a *AutoRefresh) Enable(key string, interval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.intervals[key] = interval
	if !a.running {
		a.running = true
		a.stop = make(chan struct{})
		go a.loop(a.stop)
	}
	a.log.Info("auto-refresh enabled", "data_key", key, "interval", interval)
}

// Disable removes key from the refresh schedule, stopping the loop when no
// keys remain.
func (a *AutoRefresh) Disable(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.intervals[key]; !ok {
		return
	}
	delete(a.intervals, key)
	a.log.Info("auto-refresh disabled", "data_key", key)
	if len(a.intervals) == 0 && a.running {
		a.running = false
		close(a.stop)
	}
}

// Stop halts the loop and clears the schedule.
func (a *AutoRefresh) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.intervals = make(map[string]time.Duration)
	if a.running {
		a.running = false
		close(a.stop)
	}
}

// Enabled returns the keys currently scheduled for auto-refresh.
func (a *AutoRefresh) Enabled() map[string]time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]time.Duration, len(a.intervals))
	for k, v := range a.intervals {
		out[k] = v
	}
	return out
}

func (a *AutoRefresh) loop(stop chan struct{}) {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.tickOnce()
		}
	}
}

// tickOnce refreshes every enabled key whose cache entry is missing or older
// than its refresh interval.
func (a *AutoRefresh) tickOnce() {
	now := time.Now()
	for key, interval := range a.Enabled() {
		entry, ok := a.store.Peek(key)
		if ok && now.Sub(entry.CreatedAt) < interval {
			continue
		}
		if ok {
			a.log.Debug("auto-refreshing", "data_key", key, "age", now.Sub(entry.CreatedAt))
		}
		metrics.AutoRefreshTriggers.Inc()
		a.refresh(key)
	}
}
