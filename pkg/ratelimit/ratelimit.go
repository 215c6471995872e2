package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter is a fixed-interval gate: successive Wait calls return at least one
// interval apart. Jitter only ever lengthens the gap, so the interval is a
// hard minimum that provider quotas can rely on.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	clock    clockwork.Clock
	interval time.Duration
	jitter   float64 // 0.0 to 1.0

	mu   sync.Mutex
	next time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects the clock used for scheduling. Tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// NewLimiter creates a new limiter with the given requests per second (rps)
// and jitter factor. Jitter is clamped to [0, 1].
// If rps is <= 0, the limiter does not block.
func NewLimiter(rps float64, jitter float64, opts ...Option) *Limiter {
	var interval time.Duration
	if rps > 0 {
		interval = time.Duration(float64(time.Second) / rps)
	}
	return Every(interval, jitter, opts...)
}

// Every creates a limiter that spaces operations by at least interval.
func Every(interval time.Duration, jitter float64, opts ...Option) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	l := &Limiter{
		clock:    clockwork.NewRealClock(),
		interval: interval,
		jitter:   jitter,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval reports the minimum spacing between operations.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until it is time to perform the next operation, or until the
// context is canceled. The first call never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.clock.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.interval + l.extra())
	l.mu.Unlock()

	delay := at.Sub(now)
	if delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.clock.After(delay):
		return nil
	}
}

// extra returns a random non-negative addition of up to jitter*interval.
func (l *Limiter) extra() time.Duration {
	if l.jitter == 0 {
		return 0
	}
	return time.Duration(float64(l.interval) * l.jitter * rand.Float64())
}
