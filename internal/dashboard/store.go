package dashboard

import (
	"sync"
	"time"
)

// Store owns the key -> CacheEntry map. It is safe for concurrent use; all
// entries handed out are copies so readers never observe a half-updated entry.
//
// The only eviction is TTL-based via SweepExpired. The cache grows to at most
// the number of registered keys, so no size bound or LRU is applied here.
type Store struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	now     func() time.Time
}

// StoreInfo summarizes the cache contents for diagnostics.
type StoreInfo struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
	StaleEntries   int `json:"stale_entries"`
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the entry for key, updating its last-access time.
// A Ready entry past half its TTL is flipped to Stale before being returned;
// expiry handling is left to the caller.
func (s *Store) Get(key string) (CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	now := s.now()
	entry.LastAccess = now
	if entry.State == StateReady && entry.IsStale(now) {
		entry.State = StateStale
	}
	return *entry, true
}

// Peek returns a copy of the entry without touching last-access time.
func (s *Store) Peek(key string) (CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	return *entry, true
}

// Put overwrites or creates the entry for key with a fresh timestamp and
// Ready state, clearing any previous error message.
func (s *Store) Put(key string, value Value, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = &CacheEntry{
		Value:      value,
		CreatedAt:  now,
		TTL:        ttl,
		State:      StateReady,
		LastAccess: now,
	}
}

// MarkError flags an existing entry as failed while retaining its last good
// value (stale-while-error). Marking a key with no entry is a no-op: there is
// nothing to degrade to.
func (s *Store) MarkError(key, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	entry.State = StateError
	entry.ErrorMessage = message
	return true
}

// Invalidate removes the entry for key, reporting whether one existed.
func (s *Store) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// InvalidateAll removes every entry and returns the removed keys.
func (s *Store) InvalidateAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.entries = make(map[string]*CacheEntry)
	return keys
}

// SweepExpired removes every expired entry and returns the removed keys.
func (s *Store) SweepExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []string
	for key, entry := range s.entries {
		if entry.IsExpired(now) {
			delete(s.entries, key)
			removed = append(removed, key)
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Info counts total, expired, and stale-but-unexpired entries.
func (s *Store) Info() StoreInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	info := StoreInfo{TotalEntries: len(s.entries)}
	for _, entry := range s.entries {
		if entry.IsExpired(now) {
			info.ExpiredEntries++
		} else if entry.IsStale(now) {
			info.StaleEntries++
		}
	}
	return info
}
