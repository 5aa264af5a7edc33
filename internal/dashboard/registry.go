package dashboard

import (
	"sort"
	"sync"
	"time"
)

// Descriptor describes one registered data key: how to fetch it and how long
// a fetched value stays fresh.
type Descriptor struct {
	Key         string
	Provider    ProviderFunc
	TTL         time.Duration
	Description string
}

// Registry owns the key -> Descriptor map. Registration is an idempotent
// upsert; re-registering a key overwrites its descriptor. There is no
// runtime deletion, only a full clear on shutdown.
type Registry struct {
	mu    sync.RWMutex
	descs map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descs: make(map[string]Descriptor)}
}

// Register upserts the descriptor for key.
func (r *Registry) Register(key string, provider ProviderFunc, ttl time.Duration, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descs[key] = Descriptor{
		Key:         key,
		Provider:    provider,
		TTL:         ttl,
		Description: description,
	}
}

// Describe returns the descriptor for key if registered.
func (r *Registry) Describe(key string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descs[key]
	return desc, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.descs))
	for key := range r.descs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descs)
}

// Clear removes every descriptor. Shutdown only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descs = make(map[string]Descriptor)
}
