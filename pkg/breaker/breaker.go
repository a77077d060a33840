package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// Option configures Breaker.
type Option func(*Config)

// Config holds breaker thresholds.
type Config struct {
	ConsecutiveFailures uint32
	Interval            time.Duration
	Timeout             time.Duration
	HalfOpenRequests    uint32
	OnStateChange       func(name, from, to string)
}

// WithConsecutiveFailures sets how many failures in a row open the breaker.
func WithConsecutiveFailures(n uint32) Option {
	return func(c *Config) {
		c.ConsecutiveFailures = n
	}
}

// WithTimeout sets how long the breaker stays open before probing.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithInterval sets the closed-state window after which counts reset.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithStateChange registers a callback for state transitions.
func WithStateChange(fn func(name, from, to string)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// Breaker guards calls to a flaky dependency.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a named breaker. Defaults: open after 3 consecutive failures,
// probe again after 30s.
func New(name string, opts ...Option) *Breaker {
	cfg := &Config{
		ConsecutiveFailures: 3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		HalfOpenRequests:    1,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}
	if cfg.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Do runs fn through the breaker. Rejected calls return ErrOpen.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State reports closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}
