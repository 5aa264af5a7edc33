package dashboard

import (
	"sync"
	"time"

	"github.com/onnwee/school-dashboard/internal/metrics"
)

// PerformanceStats is a read-only snapshot of the fetch/cache counters.
type PerformanceStats struct {
	FetchCount     uint64  `json:"fetch_count"`
	CacheHits      uint64  `json:"cache_hits"`
	CacheMisses    uint64  `json:"cache_misses"`
	ErrorCount     uint64  `json:"error_count"`
	AvgFetchTimeMs float64 `json:"avg_fetch_time_ms"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
}

// StatsCollector keeps process-wide counters and a running mean of fetch
// durations. Counters reset only via Reset or process restart. Every record
// is mirrored to the Prometheus metrics.
type StatsCollector struct {
	mu             sync.Mutex
	fetchCount     uint64
	cacheHits      uint64
	cacheMisses    uint64
	errorCount     uint64
	avgFetchTimeMs float64
}

// NewStatsCollector creates a zeroed collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// RecordHit counts a cache hit.
func (s *StatsCollector) RecordHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
	metrics.CacheHits.Inc()
}

// RecordMiss counts a cache miss.
func (s *StatsCollector) RecordMiss() {
	s.mu.Lock()
	s.cacheMisses++
	s.mu.Unlock()
	metrics.CacheMisses.Inc()
}

// RecordFetch counts a successful validated fetch and folds its duration
// into the running mean.
func (s *StatsCollector) RecordFetch(duration time.Duration) {
	ms := float64(duration.Microseconds()) / 1000.0
	s.mu.Lock()
	s.fetchCount++
	// incremental running mean
	s.avgFetchTimeMs += (ms - s.avgFetchTimeMs) / float64(s.fetchCount)
	s.mu.Unlock()
	metrics.FetchesTotal.WithLabelValues("success").Inc()
	metrics.FetchDuration.WithLabelValues("success").Observe(duration.Seconds())
}

// RecordError counts a failed fetch. status distinguishes provider errors
// from validation rejections in the Prometheus view.
func (s *StatsCollector) RecordError(status string, duration time.Duration) {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
	metrics.FetchesTotal.WithLabelValues(status).Inc()
	metrics.FetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Snapshot returns a copy of the counters with the derived hit rate.
func (s *StatsCollector) Snapshot() PerformanceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.cacheHits + s.cacheMisses
	if total == 0 {
		total = 1
	}
	return PerformanceStats{
		FetchCount:     s.fetchCount,
		CacheHits:      s.cacheHits,
		CacheMisses:    s.cacheMisses,
		ErrorCount:     s.errorCount,
		AvgFetchTimeMs: s.avgFetchTimeMs,
		CacheHitRate:   float64(s.cacheHits) / float64(total),
	}
}

// Reset zeroes all counters. Admin use only.
func (s *StatsCollector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCount = 0
	s.cacheHits = 0
	s.cacheMisses = 0
	s.errorCount = 0
	s.avgFetchTimeMs = 0
}
