package pipeline_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kicklens/scraper/pipeline"
)

// -- RateLimiter ---------------------------------------------------------------

func TestRateLimiter_UnderLimitNoDelay(t *testing.T) {
	limiter := pipeline.NewRateLimiter(5, time.Second)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("calls under the limit should not block, took %v", elapsed)
	}
}

func TestRateLimiter_OverLimitWaitsForWindow(t *testing.T) {
	window := 300 * time.Millisecond
	limiter := pipeline.NewRateLimiter(2, window)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("third acquire: %v", err)
	}

	if elapsed := time.Since(start); elapsed < window-10*time.Millisecond {
		t.Errorf("third call admitted after %v, want at least the %v window", elapsed, window)
	}
}

func TestRateLimiter_ConcurrentCallersRespectWindow(t *testing.T) {
	const limit = 3
	window := 200 * time.Millisecond
	limiter := pipeline.NewRateLimiter(limit, window)

	const callers = 9
	var mu sync.Mutex
	var admitted []time.Time
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			admitted = append(admitted, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(admitted) != callers {
		t.Fatalf("want %d admissions, got %d", callers, len(admitted))
	}

	sort.Slice(admitted, func(i, j int) bool { return admitted[i].Before(admitted[j]) })
	for i := 0; i+limit < len(admitted); i++ {
		gap := admitted[i+limit].Sub(admitted[i])
		if gap < window-10*time.Millisecond {
			t.Errorf("admissions %d..%d span only %v, limit is %d per %v", i, i+limit, gap, limit, window)
		}
	}
}

func TestRateLimiter_CancelWhileWaiting(t *testing.T) {
	limiter := pipeline.NewRateLimiter(1, 5*time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled acquire took %v, should return promptly", elapsed)
	}
}

func TestRateLimiter_CancelledWaiterLeavesNoTrace(t *testing.T) {
	window := 200 * time.Millisecond
	limiter := pipeline.NewRateLimiter(1, window)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx); err == nil {
		t.Fatal("expected cancelled acquire to fail")
	}

	// Once the only recorded call ages out, a fresh caller gets in without
	// paying for the cancelled one.
	time.Sleep(window)
	start := time.Now()
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after window: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("acquire after window took %v, cancelled waiter should not count", elapsed)
	}
}
