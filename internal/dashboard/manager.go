package dashboard

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/onnwee/school-dashboard/internal/logger"
	"github.com/onnwee/school-dashboard/internal/metrics"
)

// Options configures a Manager. Zero fields fall back to the defaults the
// dashboard has always run with.
type Options struct {
	PoolSize        int           // worker pool size (default 8)
	DefaultTTL      time.Duration // TTL for keys registered with ttl <= 0 (default 5m)
	AutoRefreshTick time.Duration // ticker period (default 1s)
	SweepInterval   time.Duration // expired-entry sweep period (default 1m, <0 disables)
	ShutdownGrace   time.Duration // drain wait on shutdown (default 5s)
	EventBufferSize int           // per-subscriber event buffer (default 64)
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 8
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = 5 * time.Minute
	}
	if o.AutoRefreshTick <= 0 {
		o.AutoRefreshTick = time.Second
	}
	if o.SweepInterval == 0 {
		o.SweepInterval = time.Minute
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 5 * time.Second
	}
	return o
}

// CacheInfo is the diagnostics view of the cache and scheduler.
type CacheInfo struct {
	StoreInfo
	ActiveFetches  int      `json:"active_fetches"`
	RegisteredKeys []string `json:"registered_keys"`
}

// Manager is the public face of the dashboard data cache: it mediates
// between slow aggregate providers and callers that must never block.
// Reads are served from the cache; misses and staleness trigger background
// fetches through the bounded scheduler.
type Manager struct {
	opts      Options
	store     *Store
	registry  *Registry
	validator *Validator
	stats     *StatsCollector
	bus       *Bus
	sched     *Scheduler
	ticker    *AutoRefresh

	sweepStop chan struct{}
	closed    atomic.Bool
	log       *slog.Logger
}

// NewManager wires up a ready-to-use manager and starts its sweep loop.
func NewManager(opts Options) *Manager {
	opts = opts.withDefaults()

	store := NewStore()
	registry := NewRegistry()
	validator := NewValidator(store)
	stats := NewStatsCollector()
	bus := NewBus(opts.EventBufferSize)
	sched := NewScheduler(registry, store, validator, stats, bus, opts.PoolSize)

	m := &Manager{
		opts:      opts,
		store:     store,
		registry:  registry,
		validator: validator,
		stats:     stats,
		bus:       bus,
		sched:     sched,
		log:       logger.WithComponent("dashboard"),
	}
	m.ticker = NewAutoRefresh(store, func(key string) { sched.RequestFetch(key) }, opts.AutoRefreshTick)

	if opts.SweepInterval > 0 {
		m.sweepStop = make(chan struct{})
		go m.sweepLoop()
	}

	m.log.Info("dashboard data manager initialized",
		"pool_size", opts.PoolSize, "default_ttl", opts.DefaultTTL)
	return m
}

// Register upserts a data key with its provider and TTL. A non-positive ttl
// falls back to the default.
func (m *Manager) Register(key string, provider ProviderFunc, ttl time.Duration, description string) {
	if ttl <= 0 {
		ttl = m.opts.DefaultTTL
	}
	m.registry.Register(key, provider, ttl, description)
	m.log.Debug("registered data key", "data_key", key, "ttl", ttl)
}

// SetRule installs the validation rule for a key.
func (m *Manager) SetRule(key string, rule Rule) {
	m.validator.SetRule(key, rule)
}

// RuleFor returns the validation rule configured for a key, if any.
func (m *Manager) RuleFor(key string) (Rule, bool) {
	return m.validator.Rule(key)
}

// Get returns the cached value for key.
//
// A fresh entry is a hit. An entry past half its TTL is still served but a
// background refresh is requested. An expired entry is treated as a miss:
// a fetch is requested and found is false — expired values are never served.
// Unknown keys log and return not-found.
//
// With forceRefresh a fetch is requested regardless of freshness, and the
// current unexpired value (if any) is returned in the meantime.
func (m *Manager) Get(key string, forceRefresh bool) (Value, bool) {
	if _, ok := m.registry.Describe(key); !ok {
		m.log.Warn("get for unregistered key", "data_key", key)
		return nil, false
	}

	if forceRefresh {
		m.stats.RecordMiss()
		m.sched.RequestFetch(key)
		if entry, ok := m.store.Get(key); ok && !entry.IsExpired(time.Now()) {
			return entry.Value, true
		}
		return nil, false
	}

	entry, ok := m.store.Get(key)
	if ok && !entry.IsExpired(time.Now()) {
		m.stats.RecordHit()
		if entry.State == StateStale {
			// Serve the stale value and refresh behind the caller's back.
			m.sched.RequestFetch(key)
		}
		return entry.Value, true
	}

	m.stats.RecordMiss()
	m.sched.RequestFetch(key)
	return nil, false
}

// Refresh requests a background fetch for key without reading the cache.
func (m *Manager) Refresh(key string) bool {
	return m.sched.RequestFetch(key)
}

// Prewarm requests a fetch for every registered key. Used at startup so the
// first dashboard render has data to show.
func (m *Manager) Prewarm() {
	for _, key := range m.registry.Keys() {
		m.sched.RequestFetch(key)
	}
}

// Invalidate removes the cached entry for key and emits CacheInvalidated.
//
// Known limitation, kept on purpose: an in-flight fetch for key is not
// cancelled and will repopulate the cache when it completes.
func (m *Manager) Invalidate(key string) {
	if m.store.Invalidate(key) {
		metrics.CacheInvalidations.Inc()
		m.bus.Publish(Event{Type: EventCacheInvalidated, Key: key})
		m.log.Debug("cache invalidated", "data_key", key)
	}
}

// InvalidateAll removes every cached entry, emitting CacheInvalidated per key.
func (m *Manager) InvalidateAll() {
	for _, key := range m.store.InvalidateAll() {
		metrics.CacheInvalidations.Inc()
		m.bus.Publish(Event{Type: EventCacheInvalidated, Key: key})
	}
	m.log.Info("all cache entries invalidated")
}

// SetAutoRefresh enables periodic forced refresh of key every interval.
func (m *Manager) SetAutoRefresh(key string, interval time.Duration) {
	m.ticker.Enable(key, interval)
}

// DisableAutoRefresh removes key from the auto-refresh schedule.
func (m *Manager) DisableAutoRefresh(key string) {
	m.ticker.Disable(key)
}

// Stats returns a snapshot of the performance counters.
func (m *Manager) Stats() PerformanceStats {
	return m.stats.Snapshot()
}

// CacheInfo returns cache contents and scheduler diagnostics.
func (m *Manager) CacheInfo() CacheInfo {
	return CacheInfo{
		StoreInfo:      m.store.Info(),
		ActiveFetches:  m.sched.ActiveCount(),
		RegisteredKeys: m.registry.Keys(),
	}
}

// Keys returns the registered data keys.
func (m *Manager) Keys() []string {
	return m.registry.Keys()
}

// Describe returns the descriptor for key.
func (m *Manager) Describe(key string) (Descriptor, bool) {
	return m.registry.Describe(key)
}

// Peek returns the raw cache entry for key without counting a hit or miss.
func (m *Manager) Peek(key string) (CacheEntry, bool) {
	return m.store.Peek(key)
}

// Subscribe registers an event listener. The cancel function unsubscribes.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.bus.Subscribe()
}

// GaugeSnapshot feeds the metrics collector.
func (m *Manager) GaugeSnapshot() metrics.GaugeSnapshot {
	info := m.store.Info()
	return metrics.GaugeSnapshot{
		CacheEntries: info.TotalEntries,
		StaleEntries: info.StaleEntries,
		ActiveJobs:   m.sched.ActiveCount(),
	}
}

// Sweep removes expired entries now. Normally driven by the internal loop.
func (m *Manager) Sweep() []string {
	removed := m.store.SweepExpired()
	if len(removed) > 0 {
		metrics.CacheSweptEntries.Add(float64(len(removed)))
		m.log.Debug("swept expired cache entries", "count", len(removed))
	}
	return removed
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown stops the ticker and sweep loop, cancels in-flight fetches, waits
// up to the grace period for the pool to drain, then clears all state.
// Safe to call once; later calls are no-ops.
func (m *Manager) Shutdown() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.log.Info("dashboard data manager shutting down")

	m.ticker.Stop()
	if m.sweepStop != nil {
		close(m.sweepStop)
	}

	m.sched.CancelAll()
	if !m.sched.Drain(m.opts.ShutdownGrace) {
		m.log.Warn("fetches still in flight after grace period", "grace", m.opts.ShutdownGrace)
	}

	m.bus.Close()
	m.sched.clearActive()
	m.store.InvalidateAll()
	m.registry.Clear()
	m.log.Info("dashboard data manager shutdown complete")
}
