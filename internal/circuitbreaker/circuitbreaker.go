package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/onnwee/school-dashboard/internal/metrics"
)

// ErrOpen is returned when the breaker is open and the call is not attempted.
var ErrOpen = errors.New("circuit breaker is open")

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// Breaker guards a downstream dependency. After FailureThreshold consecutive
// failures it opens and rejects calls immediately; after Timeout it lets
// probe calls through, closing again after SuccessThreshold successes.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	name        string

	failureThreshold int
	successThreshold int
	timeout          time.Duration
}

// Config holds breaker configuration. Zero fields use the defaults.
type Config struct {
	Name             string
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes needed to close
	Timeout          time.Duration // open duration before probing
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	metrics.BreakerState.WithLabelValues(cfg.Name).Set(0)
	return &Breaker{
		state:            StateClosed,
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
	}
}

// Call runs fn if the breaker allows it, recording the outcome. When the
// breaker is open it returns ErrOpen without invoking fn.
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) > b.timeout {
			b.state = StateHalfOpen
			b.successes = 0
			metrics.BreakerState.WithLabelValues(b.name).Set(2)
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	b.successes = 0

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.open()
		}
	case StateHalfOpen:
		// A failed probe re-opens immediately.
		b.failures = 0
		b.open()
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	metrics.BreakerTrips.WithLabelValues(b.name).Inc()
	metrics.BreakerState.WithLabelValues(b.name).Set(1)
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			metrics.BreakerState.WithLabelValues(b.name).Set(0)
		}
	}
}

// GetState returns the current state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
