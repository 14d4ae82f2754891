package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without invoking the wrapped call while the
// breaker is open.
var ErrOpen = errors.New("circuit breaker open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

type Settings struct {
	Name string
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing one
	// probe call through.
	Cooldown time.Duration
}

// CircuitBreaker fails calls fast after repeated failures of a
// dependency, so callers stop hammering a service that is down.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func New(settings Settings) *CircuitBreaker {
	threshold := settings.FailureThreshold
	if threshold <= 0 {
		threshold = 3
	}
	cooldown := settings.Cooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{
		name:      settings.Name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     StateClosed,
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrOpen immediately. A failure in half-open state reopens the breaker;
// a success closes it.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.observe(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) < cb.cooldown {
			return ErrOpen
		}
		cb.state = StateHalfOpen
	}
	return nil
}

func (cb *CircuitBreaker) observe(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
		return
	}

	cb.failures = 0
	cb.state = StateClosed
}
