package pipeline

import (
	"context"
	"sync"
	"time"
)

// RateLimiter admits at most limit calls inside any trailing window. It
// keeps the timestamps of issued calls; a timestamp is recorded only at
// admission, so a caller that cancels while waiting leaves no trace.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window}
}

// Acquire blocks until issuing one more call would not exceed the limit,
// then records the call and returns. It never drops a caller: the only
// non-nil return is the context's error.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		expired := 0
		for expired < len(l.calls) && now.Sub(l.calls[expired]) >= l.window {
			expired++
		}
		l.calls = l.calls[expired:]

		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
