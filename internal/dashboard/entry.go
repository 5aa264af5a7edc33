package dashboard

import (
	"context"
	"time"
)

// DataState represents the lifecycle state of a cached dashboard value.
type DataState string

const (
	StateEmpty   DataState = "empty"
	StateLoading DataState = "loading"
	StateReady   DataState = "ready"
	StateStale   DataState = "stale"
	StateError   DataState = "error"
)

// Value is the closed set of payload types a provider may produce.
// The validator dispatches on the configured rule for a key, never on
// arbitrary runtime types.
type Value interface {
	isValue()
}

// CounterValue is a single aggregate count (students, books, chairs, ...).
type CounterValue int64

// Activity is one row of the recent-activities feed.
type Activity struct {
	Text string    `json:"text"`
	When time.Time `json:"when"`
	Icon string    `json:"icon"`
}

// ActivityListValue is an ordered feed of activity records.
type ActivityListValue []Activity

// ReportValue carries a named set of counts for aggregate report payloads.
type ReportValue map[string]int64

func (CounterValue) isValue()      {}
func (ActivityListValue) isValue() {}
func (ReportValue) isValue()       {}

// ProviderFunc produces the raw value for a data key. It may block (e.g. on a
// database query) and must not assume which goroutine runs it. The context is
// cancelled on shutdown; honoring it is cooperative.
type ProviderFunc func(ctx context.Context) (Value, error)

// CacheEntry holds one cached value with its TTL bookkeeping.
type CacheEntry struct {
	Value        Value
	CreatedAt    time.Time
	TTL          time.Duration
	State        DataState
	ErrorMessage string
	LastAccess   time.Time
}

// IsExpired reports whether the entry is older than its TTL.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.TTL
}

// IsStale reports whether the entry is past half its TTL but not yet expired.
func (e *CacheEntry) IsStale(now time.Time) bool {
	age := now.Sub(e.CreatedAt)
	return age > e.TTL/2 && age <= e.TTL
}

// Age returns how old the entry is.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
