// Package resilience provides the circuit breaker, bulkhead pools and
// deadline budget used to keep a failing dependency from sinking a
// prediction request.
package resilience

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means calls pass through normally
	CircuitClosed CircuitState = iota
	// CircuitOpen means calls are rejected without invoking the resource
	CircuitOpen
	// CircuitHalfOpen means a bounded number of trial calls are allowed
	CircuitHalfOpen
)

// String returns string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig defines circuit breaker thresholds
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

// DefaultBreakerConfig returns the recommended defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker guards one named resource. CLOSED moves to OPEN after
// FailureThreshold consecutive failures; OPEN rejects every call until
// RecoveryTimeout elapses, then HALF_OPEN admits up to HalfOpenMaxCalls
// trials. Any trial success closes the circuit, any trial failure
// reopens it.
type CircuitBreaker struct {
	name          string
	config        BreakerConfig
	state         CircuitState
	failureCount  int
	openedAt      time.Time
	halfOpenCalls int
	mu            sync.Mutex
	logger        *logrus.Logger
	now           func() time.Time
}

// NewCircuitBreaker creates a breaker for a named resource
func NewCircuitBreaker(name string, config BreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  CircuitClosed,
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs fn under the breaker. If the breaker rejects the call,
// fn is not invoked and models.ErrCircuitOpen is returned.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn()
	cb.Record(err)
	return err
}

// Allow checks whether a call may proceed, advancing OPEN to HALF_OPEN
// when the recovery timeout has elapsed
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.RecoveryTimeout {
			return models.ErrCircuitOpen
		}
		cb.transitionLocked(CircuitHalfOpen)
		cb.halfOpenCalls = 1
		return nil
	case CircuitHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			return models.ErrCircuitOpen
		}
		cb.halfOpenCalls++
		return nil
	}
	return nil
}

// Record reports the outcome of a call previously admitted by Allow
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		// Any success in HALF_OPEN closes the circuit
		cb.failureCount = 0
		if cb.state == CircuitHalfOpen {
			cb.transitionLocked(CircuitClosed)
		}
		return
	}

	switch cb.state {
	case CircuitClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.openLocked()
		}
	case CircuitHalfOpen:
		// A failed trial reopens immediately
		cb.openLocked()
	}
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset manually restores the breaker to CLOSED
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	cb.halfOpenCalls = 0
	cb.transitionLocked(CircuitClosed)
}

func (cb *CircuitBreaker) openLocked() {
	cb.openedAt = cb.now()
	cb.failureCount = 0
	cb.halfOpenCalls = 0
	cb.transitionLocked(CircuitOpen)
	metrics.RecordBreakerTrip(cb.name)
}

func (cb *CircuitBreaker) transitionLocked(next CircuitState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if cb.logger != nil {
		cb.logger.WithFields(logrus.Fields{
			"resource":  cb.name,
			"old_state": prev.String(),
			"new_state": next.String(),
		}).Info("Circuit breaker state change")
	}
}

// BreakerRegistry owns the per-resource breakers. It is constructed and
// injected explicitly so breaker lifetime is visible at the call site.
type BreakerRegistry struct {
	config   BreakerConfig
	logger   *logrus.Logger
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates an empty registry with shared config
func NewBreakerRegistry(config BreakerConfig, logger *logrus.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for a named resource, creating it on first use
func (r *BreakerRegistry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, r.config, r.logger)
	r.breakers[name] = cb
	return cb
}
