// Package ratelimit spaces outbound API calls per exchange.
//
// Each exchange has a single watermark: the time of the most recently
// granted call. A new call is granted either now (when the watermark is at
// least one interval in the past) or exactly one interval after the
// watermark. The watermark is advanced under the lock before the caller
// waits, so concurrent callers never share a slot.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between calls to the same exchange.
type Limiter struct {
	mu        sync.Mutex
	interval  time.Duration
	intervals map[string]time.Duration
	watermark map[string]time.Time
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithInterval sets the interval for a single exchange.
func WithInterval(exchange string, d time.Duration) Option {
	return func(l *Limiter) {
		l.intervals[exchange] = d
	}
}

// New creates a Limiter with a default interval applied to every exchange
// that has no interval of its own.
func New(interval time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		interval:  interval,
		intervals: make(map[string]time.Duration),
		watermark: make(map[string]time.Time),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetInterval changes the interval of one exchange.
func (l *Limiter) SetInterval(exchange string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[exchange] = d
}

// Interval returns the interval in effect for exchange.
func (l *Limiter) Interval(exchange string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intervalLocked(exchange)
}

func (l *Limiter) intervalLocked(exchange string) time.Duration {
	if d, ok := l.intervals[exchange]; ok {
		return d
	}
	return l.interval
}

// Schedule reserves the next call slot for exchange and returns the time at
// or after which the caller may proceed.
func (l *Limiter) Schedule(exchange string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	interval := l.intervalLocked(exchange)

	wm, ok := l.watermark[exchange]
	if !ok || !now.Before(wm.Add(interval)) {
		l.watermark[exchange] = now
		return now
	}

	wm = wm.Add(interval)
	l.watermark[exchange] = wm
	return wm
}

// Wait reserves a slot and blocks until it is reached. The slot stays
// consumed when ctx is cancelled first.
func (l *Limiter) Wait(ctx context.Context, exchange string) error {
	at := l.Schedule(exchange)
	delay := at.Sub(l.now())
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
