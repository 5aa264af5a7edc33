package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.SweepInterval == 0 {
		opts.SweepInterval = -1 // no background sweeping under test
	}
	m := NewManager(opts)
	t.Cleanup(m.Shutdown)
	return m
}

// awaitReady blocks until key holds a Ready entry.
func awaitReady(t *testing.T, m *Manager, key string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if entry, ok := m.Peek(key); ok && entry.State == StateReady {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("key %q never became ready", key)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestManagerColdMissThenHit(t *testing.T) {
	m := newTestManager(t, Options{})
	m.Register("total_students_count", counterProvider(412, nil), 10*time.Minute, "enrolled students")

	// Cold read: miss, fetch scheduled, nothing returned.
	if value, ok := m.Get("total_students_count", false); ok {
		t.Fatalf("cold read returned %v", value)
	}
	awaitReady(t, m, "total_students_count")

	value, ok := m.Get("total_students_count", false)
	if !ok || value.(CounterValue) != 412 {
		t.Fatalf("warm read = %v, %v", value, ok)
	}

	stats := m.Stats()
	if stats.CacheMisses != 1 || stats.CacheHits != 1 {
		t.Errorf("misses/hits = %d/%d", stats.CacheMisses, stats.CacheHits)
	}
}

func TestManagerGetUnregisteredKey(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, ok := m.Get("unknown", false); ok {
		t.Error("unregistered key returned a value")
	}
	if m.Refresh("unknown") {
		t.Error("refresh started for unregistered key")
	}
}

func TestManagerStaleServedAndRefreshed(t *testing.T) {
	m := newTestManager(t, Options{})
	fetches := make(chan struct{}, 8)
	m.Register("available_books_count", func(ctx context.Context) (Value, error) {
		fetches <- struct{}{}
		return CounterValue(980), nil
	}, 10*time.Minute, "")

	m.Get("available_books_count", false)
	awaitReady(t, m, "available_books_count")
	<-fetches

	// Push the entry past half its TTL but not past it.
	setEntryAge(m.store, "available_books_count", 6*time.Minute)

	value, ok := m.Get("available_books_count", false)
	if !ok || value.(CounterValue) != 980 {
		t.Fatalf("stale read = %v, %v — stale data must still be served", value, ok)
	}
	select {
	case <-fetches:
	case <-time.After(2 * time.Second):
		t.Fatal("stale read did not trigger a background refresh")
	}
	// One miss for the cold read, one hit for the stale read.
	if m.Stats().CacheHits != 1 {
		t.Errorf("hits = %d, stale reads still count as hits", m.Stats().CacheHits)
	}
	if m.Stats().CacheMisses != 1 {
		t.Errorf("misses = %d, want 1", m.Stats().CacheMisses)
	}
}

func TestManagerExpiredNeverServed(t *testing.T) {
	m := newTestManager(t, Options{})
	release := make(chan struct{})
	first := true
	m.Register("books_borrowed_today", func(ctx context.Context) (Value, error) {
		if first {
			first = false
			return CounterValue(12), nil
		}
		<-release
		return CounterValue(13), nil
	}, time.Minute, "")
	defer close(release)

	m.Get("books_borrowed_today", false)
	awaitReady(t, m, "books_borrowed_today")

	setEntryAge(m.store, "books_borrowed_today", 2*time.Minute)

	if value, ok := m.Get("books_borrowed_today", false); ok {
		t.Fatalf("expired entry served: %v", value)
	}
	if m.Stats().CacheMisses != 2 {
		t.Errorf("misses = %d, expired read must count as miss", m.Stats().CacheMisses)
	}
	if !m.sched.IsActive("books_borrowed_today") {
		t.Error("expired read did not schedule a refetch")
	}
}

func TestManagerForceRefreshServesCurrentValue(t *testing.T) {
	m := newTestManager(t, Options{})
	release := make(chan struct{})
	calls := 0
	m.Register("k", func(ctx context.Context) (Value, error) {
		calls++
		if calls > 1 {
			<-release
		}
		return CounterValue(int64(calls)), nil
	}, time.Hour, "")
	defer close(release)

	m.Get("k", false)
	awaitReady(t, m, "k")

	// Force refresh on a fresh entry: fetch requested anyway, old value
	// still served while it runs.
	value, ok := m.Get("k", true)
	if !ok || value.(CounterValue) != 1 {
		t.Fatalf("force read = %v, %v", value, ok)
	}
	if !m.sched.IsActive("k") {
		t.Error("force refresh did not schedule a fetch")
	}
}

func TestManagerInvalidateEmitsEvent(t *testing.T) {
	m := newTestManager(t, Options{})
	m.Register("k", counterProvider(5, nil), time.Hour, "")
	m.Get("k", false)
	awaitReady(t, m, "k")

	events, cancel := m.Subscribe()
	defer cancel()

	m.Invalidate("k")
	waitEvent(t, events, EventCacheInvalidated, "k")
	if _, ok := m.Peek("k"); ok {
		t.Error("entry survived invalidation")
	}

	// Invalidating an uncached key emits nothing.
	m.Invalidate("never-cached")
	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManagerInvalidateAll(t *testing.T) {
	m := newTestManager(t, Options{})
	m.Register("a", counterProvider(1, nil), time.Hour, "")
	m.Register("b", counterProvider(2, nil), time.Hour, "")
	m.Prewarm()
	awaitReady(t, m, "a")
	awaitReady(t, m, "b")

	m.InvalidateAll()
	if info := m.CacheInfo(); info.TotalEntries != 0 {
		t.Errorf("entries = %d after InvalidateAll", info.TotalEntries)
	}
	if len(m.Keys()) != 2 {
		t.Error("registrations must survive invalidation")
	}
}

func TestManagerDefaultTTLApplied(t *testing.T) {
	m := newTestManager(t, Options{DefaultTTL: 42 * time.Second})
	m.Register("k", counterProvider(1, nil), 0, "")

	desc, ok := m.Describe("k")
	if !ok || desc.TTL != 42*time.Second {
		t.Errorf("ttl = %v, want default applied", desc.TTL)
	}
}

func TestManagerSweepRemovesExpired(t *testing.T) {
	m := newTestManager(t, Options{})
	m.Register("k", counterProvider(1, nil), time.Minute, "")
	m.Get("k", false)
	awaitReady(t, m, "k")
	setEntryAge(m.store, "k", 2*time.Minute)

	removed := m.Sweep()
	if len(removed) != 1 || removed[0] != "k" {
		t.Errorf("swept %v", removed)
	}
}

func TestManagerCacheInfo(t *testing.T) {
	m := newTestManager(t, Options{})
	m.Register("a", counterProvider(1, nil), time.Hour, "")
	m.Register("b", counterProvider(2, nil), time.Hour, "")
	m.Get("a", false)
	awaitReady(t, m, "a")

	info := m.CacheInfo()
	if info.TotalEntries != 1 {
		t.Errorf("total entries = %d", info.TotalEntries)
	}
	if len(info.RegisteredKeys) != 2 {
		t.Errorf("registered keys = %v", info.RegisteredKeys)
	}
}

func TestManagerErrorThenRecovery(t *testing.T) {
	m := newTestManager(t, Options{})
	fail := true
	m.Register("active_users_count", func(ctx context.Context) (Value, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return CounterValue(37), nil
	}, time.Hour, "")

	events, cancel := m.Subscribe()
	defer cancel()

	m.Get("active_users_count", false)
	waitEvent(t, events, EventDataError, "active_users_count")

	// Cold error: no prior value, nothing to serve.
	if _, ok := m.Get("active_users_count", false); ok {
		t.Error("error-state entry with no value served a value")
	}

	fail = false
	m.Refresh("active_users_count")
	waitEvent(t, events, EventDataUpdated, "active_users_count")
	value, ok := m.Get("active_users_count", false)
	if !ok || value.(CounterValue) != 37 {
		t.Errorf("post-recovery read = %v, %v", value, ok)
	}
}

func TestManagerShutdownIdempotent(t *testing.T) {
	m := NewManager(Options{SweepInterval: -1})
	m.Register("k", counterProvider(1, nil), time.Hour, "")
	m.SetAutoRefresh("k", time.Minute)

	m.Shutdown()
	m.Shutdown()

	if len(m.Keys()) != 0 {
		t.Error("registrations survived shutdown")
	}
	if m.CacheInfo().TotalEntries != 0 {
		t.Error("cache entries survived shutdown")
	}
}

func TestManagerAutoRefreshEndToEnd(t *testing.T) {
	m := newTestManager(t, Options{AutoRefreshTick: 5 * time.Millisecond})
	fetched := make(chan struct{}, 16)
	m.Register("active_users_count", func(ctx context.Context) (Value, error) {
		fetched <- struct{}{}
		return CounterValue(1), nil
	}, time.Hour, "")

	m.SetAutoRefresh("active_users_count", time.Millisecond)
	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-refresh never fetched")
	}
	m.DisableAutoRefresh("active_users_count")
}
