package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/onnwee/school-dashboard/internal/errorreporting"
	"github.com/onnwee/school-dashboard/internal/logger"
	"github.com/onnwee/school-dashboard/internal/metrics"
	"github.com/onnwee/school-dashboard/internal/tracing"
)

// fetchJob tracks one in-flight provider call.
type fetchJob struct {
	key       string
	startedAt time.Time
	cancelled atomic.Bool
}

// Scheduler runs provider fetches on a bounded worker pool. At most one job
// per key is in flight at any time, and at most poolSize jobs globally.
//
// Overload policy: when the pool is full a request is dropped outright, not
// queued. This matches the observed behavior of the system this replaces;
// under sustained overload, scheduled refreshes silently fail to happen.
// Callers that care watch the rejection counter.
//
// Cancellation is cooperative only: Cancel marks the job, the provider runs
// to completion, and the result is discarded without events.
type Scheduler struct {
	registry  *Registry
	store     *Store
	validator *Validator
	stats     *StatsCollector
	bus       *Bus

	sem    *semaphore.Weighted
	mu     sync.Mutex
	active map[string]*fetchJob
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

// NewScheduler creates a scheduler with poolSize worker slots.
func NewScheduler(registry *Registry, store *Store, validator *Validator, stats *StatsCollector, bus *Bus, poolSize int) *Scheduler {
	if poolSize <= 0 {
		poolSize = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		registry:  registry,
		store:     store,
		validator: validator,
		stats:     stats,
		bus:       bus,
		sem:       semaphore.NewWeighted(int64(poolSize)),
		active:    make(map[string]*fetchJob),
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.WithComponent("scheduler"),
	}
}

// RequestFetch asks for a background fetch of key. It returns true when a
// job was started. It returns false, without any event, when the key is not
// registered, a job for it is already in flight (even under force refresh),
// or the pool is full.
func (s *Scheduler) RequestFetch(key string) bool {
	desc, ok := s.registry.Describe(key)
	if !ok {
		s.log.Warn("fetch requested for unregistered key", "data_key", key)
		return false
	}

	s.mu.Lock()
	if _, inFlight := s.active[key]; inFlight {
		s.mu.Unlock()
		s.log.Debug("fetch already in flight, deduplicating", "data_key", key)
		return false
	}
	if !s.sem.TryAcquire(1) {
		s.mu.Unlock()
		s.log.Warn("worker pool exhausted, dropping fetch request", "data_key", key)
		metrics.FetchesRejected.Inc()
		return false
	}
	job := &fetchJob{key: key, startedAt: time.Now()}
	s.active[key] = job
	s.mu.Unlock()

	metrics.ActiveFetchJobs.Inc()
	s.bus.Publish(Event{Type: EventLoadingStarted, Key: key})
	s.wg.Add(1)
	go s.run(desc, job)
	return true
}

func (s *Scheduler) run(desc Descriptor, job *fetchJob) {
	defer func() {
		s.mu.Lock()
		delete(s.active, job.key)
		s.mu.Unlock()
		s.sem.Release(1)
		metrics.ActiveFetchJobs.Dec()
		s.wg.Done()
	}()

	ctx, span := tracing.StartFetchSpan(s.ctx, job.key)
	value, err := desc.Provider(ctx)
	duration := time.Since(job.startedAt)

	if job.cancelled.Load() {
		// Result discarded, no events. The provider already ran to
		// completion; this is as far as cooperative cancellation goes.
		s.log.Debug("discarding result of cancelled fetch", "data_key", job.key)
		tracing.EndFetchSpan(span, "cancelled", nil)
		metrics.FetchesTotal.WithLabelValues("cancelled").Inc()
		return
	}

	if err != nil {
		s.log.Error("provider fetch failed", "data_key", job.key, "error", err, "duration", duration)
		s.store.MarkError(job.key, err.Error())
		s.stats.RecordError("provider_error", duration)
		errorreporting.CaptureErrorWithContext(err,
			map[string]string{"component": "scheduler", "data_key": job.key}, nil)
		tracing.EndFetchSpan(span, "provider_error", err)
		s.bus.Publish(Event{Type: EventDataError, Key: job.key, Message: err.Error()})
		s.bus.Publish(Event{Type: EventLoadingFinished, Key: job.key})
		return
	}

	if verr := s.validator.Validate(job.key, value); verr != nil {
		// Rejected values are never written, not even partially.
		s.log.Warn("fetched value failed validation", "data_key", job.key, "error", verr)
		s.stats.RecordError("validation_error", duration)
		tracing.EndFetchSpan(span, "validation_error", verr)
		s.bus.Publish(Event{Type: EventDataError, Key: job.key, Message: verr.Error()})
		s.bus.Publish(Event{Type: EventLoadingFinished, Key: job.key})
		return
	}

	s.store.Put(job.key, value, desc.TTL)
	s.stats.RecordFetch(duration)
	s.log.Debug("fetch completed", "data_key", job.key, "duration", duration)
	tracing.EndFetchSpan(span, "success", nil)
	s.bus.Publish(Event{Type: EventDataUpdated, Key: job.key, Value: value})
	s.bus.Publish(Event{Type: EventLoadingFinished, Key: job.key})
}

// Cancel marks the in-flight job for key, if any, as cancelled.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.active[key]; ok {
		job.cancelled.Store(true)
	}
}

// CancelAll marks every in-flight job as cancelled and cancels the provider
// context.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	for _, job := range s.active {
		job.cancelled.Store(true)
	}
	s.mu.Unlock()
	s.cancel()
}

// ActiveCount returns the number of in-flight jobs.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// IsActive reports whether a job for key is in flight.
func (s *Scheduler) IsActive(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[key]
	return ok
}

// Drain waits up to grace for in-flight jobs to finish. It returns false if
// jobs were still running when the grace period elapsed.
func (s *Scheduler) Drain(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}

// clearActive drops the active-job set. Shutdown only; running goroutines
// still clean up after themselves.
func (s *Scheduler) clearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = make(map[string]*fetchJob)
}
