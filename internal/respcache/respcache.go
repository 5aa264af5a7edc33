package respcache

import "time"

// Cache holds serialized HTTP response bodies so repeated dashboard reads do
// not re-encode the same snapshot. Values are whole response payloads.
type Cache interface {
	// Get retrieves a cached response body by key.
	// Returns the body and true if found and not expired.
	Get(key string) ([]byte, bool)

	// Set stores a response body with the given key and TTL.
	// TTL of 0 means use the default cache TTL.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes a cached response.
	Delete(key string)

	// Clear removes all cached responses.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats represents response cache statistics.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	KeysAdded uint64 `json:"keys_added"`
	Evictions uint64 `json:"evictions"`
	Size      int64  `json:"size_bytes"` // approximate
	Items     int64  `json:"items"`
}
