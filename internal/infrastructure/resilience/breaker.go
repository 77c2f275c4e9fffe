package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	ErrCircuitOpen     = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// State is the state of one circuit
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Settings configures every breaker of a Breakers set
type Settings struct {
	// ConsecutiveFailures trips a circuit (default 5)
	ConsecutiveFailures uint32
	// Timeout is how long an open circuit rejects calls before probing (default 60s)
	Timeout time.Duration
	// Interval clears the counts of a closed circuit (default 60s)
	Interval time.Duration
	// IsFailure decides which errors count against a circuit. nil counts all.
	IsFailure func(err error) bool
	// OnStateChange is called whenever a circuit changes state
	OnStateChange func(key string, from, to State)
}

// Breakers holds one circuit breaker per key, created on first use.
// Keys are expected to come from a small set (remote hosts).
type Breakers struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// New creates an empty breaker set
func New(settings Settings) *Breakers {
	// Set default values
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.Timeout == 0 {
		settings.Timeout = 60 * time.Second
	}
	if settings.Interval == 0 {
		settings.Interval = 60 * time.Second
	}

	return &Breakers{
		settings: settings,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Execute runs fn through the circuit of key. It returns ErrCircuitOpen or
// ErrTooManyRequests without calling fn while the circuit rejects calls.
func (b *Breakers) Execute(key string, fn func() error) error {
	_, err := b.get(key).Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// State returns the state of key's circuit. Unknown keys are closed.
func (b *Breakers) State(key string) State {
	b.mu.Lock()
	cb, ok := b.breakers[key]
	b.mu.Unlock()
	if !ok {
		return StateClosed
	}
	return cb.State()
}

func (b *Breakers) get(key string) *gobreaker.CircuitBreaker[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[key]; ok {
		return cb
	}

	threshold := b.settings.ConsecutiveFailures
	st := gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Interval:    b.settings.Interval,
		Timeout:     b.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: b.settings.OnStateChange,
	}
	if isFailure := b.settings.IsFailure; isFailure != nil {
		st.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](st)
	b.breakers[key] = cb
	return cb
}
