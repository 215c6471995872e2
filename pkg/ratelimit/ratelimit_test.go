package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestLimiter_NoBlockWhenZeroRPS(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestLimiter_FirstCallDoesNotBlock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(1, 0, WithClock(clock))

	done := make(chan error, 1)
	go func() { done <- limiter.Wait(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first Wait should return immediately")
	}
}

func TestLimiter_EnforcesInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := Every(500*time.Millisecond, 0, WithClock(clock))
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- limiter.Wait(ctx) }()

	blockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(blockCtx, 1); err != nil {
		t.Fatalf("second Wait never blocked: %v", err)
	}

	clock.Advance(499 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Wait returned before the interval elapsed")
	default:
	}

	clock.Advance(1 * time.Millisecond)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the interval elapsed")
	}
}

func TestLimiter_IdleTimeIsNotBanked(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := Every(time.Second, 0, WithClock(clock))
	ctx := context.Background()

	_ = limiter.Wait(ctx)
	clock.Advance(10 * time.Second)

	// After a long idle period only one call may pass without waiting.
	_ = limiter.Wait(ctx)

	done := make(chan error, 1)
	go func() { done <- limiter.Wait(ctx) }()

	blockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(blockCtx, 1); err != nil {
		t.Fatalf("third Wait should block: %v", err)
	}
	clock.Advance(time.Second)
	<-done
}

func TestLimiter_ContextCancellation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(1, 0, WithClock(clock))

	_ = limiter.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatalf("expected context canceled error")
	}
}

func TestLimiter_JitterNeverShortensInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := Every(100*time.Millisecond, 0.5, WithClock(clock))

	start := clock.Now()
	_ = limiter.Wait(context.Background())

	limiter.mu.Lock()
	gap := limiter.next.Sub(start)
	limiter.mu.Unlock()

	if gap < 100*time.Millisecond || gap > 150*time.Millisecond {
		t.Errorf("expected scheduled gap in [100ms, 150ms], got %v", gap)
	}
}

func TestNewLimiter_Interval(t *testing.T) {
	if got := NewLimiter(4, 0).Interval(); got != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %v", got)
	}
}
