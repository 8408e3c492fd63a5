// Package resilience provides reliability patterns for calls that leave
// the process. Homeroom wraps its event publishes in a circuit breaker
// so a dead broker degrades to fast local failures instead of stalling
// request paths on connection timeouts.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker counts consecutive failures and opens once a threshold is
// reached. While open it rejects immediately; after the timeout a single
// probe call is let through (half-open) and the breaker closes again on
// its success. Concurrent callers during the probe are rejected, so a
// recovering broker is hit by one request, not a burst.
type Breaker struct {
	mu          sync.Mutex
	state       state
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	probing     bool
	now         func() time.Time // for testing
}

// NewBreaker creates a breaker that opens after maxFailures consecutive
// failures and stays open for timeout before probing again.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open or another probe is in
// flight, in which case it returns ErrCircuitOpen without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return nil
}

// State reports the stored state as "closed", "open", or "half-open".
// An open breaker past its timeout still reports open until the next
// call arrives to probe it.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.state = stateHalfOpen
		b.probing = true
		return true
	case stateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	b.probing = false
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		if b.state != stateOpen {
			slog.Warn("circuit breaker opened", "consecutive_failures", b.failures)
		}
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	if b.state != stateClosed {
		slog.Info("circuit breaker closed")
	}
	b.failures = 0
	b.state = stateClosed
	b.probing = false
}
