package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig carries the breaker knobs the spreadsheet clients
// read from the environment. Enabled=false leaves the breaker constructed
// but never consulted.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// NormalizeCircuitBreakerConfig replaces out-of-range knobs with defaults.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// CircuitBreaker shields the sheet collaborators from hammering a failing
// endpoint: a streak of transient failures trips it open, and once the
// open timeout elapses a bounded number of probe calls decides between
// closing again and re-tripping.
type CircuitBreaker struct {
	mu sync.Mutex

	maxFailStreak int
	openTimeout   time.Duration
	maxProbes     int

	state          CircuitState
	failStreak     int
	trippedAt      time.Time
	probesInFlight int
	probeSuccesses int
	clock          func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	cfg := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{
		FailureThreshold: failureThreshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	})

	return &CircuitBreaker{
		maxFailStreak: cfg.FailureThreshold,
		openTimeout:   cfg.OpenTimeout,
		maxProbes:     cfg.HalfOpenMaxReq,
		state:         CircuitStateClosed,
		clock:         time.Now,
	}
}

// Allow reports whether a call may proceed. Open circuits reject until the
// timeout elapses; half-open circuits admit at most maxProbes concurrent
// probe calls.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.clock().Sub(b.trippedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.reset(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesInFlight >= b.maxProbes {
			return ErrCircuitOpen
		}
		b.probesInFlight++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failStreak = 0
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.probeSuccesses++
		if b.probeSuccesses >= b.maxProbes && b.probesInFlight == 0 {
			b.reset(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failStreak++
		if b.failStreak >= b.maxFailStreak {
			b.reset(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.reset(CircuitStateOpen)
	case CircuitStateOpen:
		// Failures while open keep pushing the probe window out.
		b.trippedAt = b.clock()
	}
}

// State reports the effective state: an open circuit whose timeout has
// elapsed answers half-open even before the next Allow transitions it.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.clock().Sub(b.trippedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) reset(state CircuitState) {
	b.state = state
	b.probesInFlight = 0
	b.probeSuccesses = 0
	switch state {
	case CircuitStateClosed:
		b.failStreak = 0
		b.trippedAt = time.Time{}
	case CircuitStateOpen:
		b.trippedAt = b.clock()
	}
}
