package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWait_EnforcesMinDelay(t *testing.T) {
	limiter := NewLimiter("workable", 100*time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_SeparateLimitersDoNotBlockEachOther(t *testing.T) {
	a := NewLimiter("workable", 200*time.Millisecond)
	b := NewLimiter("lever", 200*time.Millisecond)
	ctx := context.Background()

	if err := a.Wait(ctx); err != nil {
		t.Fatalf("workable wait: %v", err)
	}

	// The other provider has its own budget and must not block.
	start := time.Now()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewLimiter("greenhouse", 0)
	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewLimiter("workable", 5*time.Second) // long delay

	// First call to consume the burst token.
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

func TestTransport_WaitsBeforeDelegating(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := WrapClient(srv.Client(), NewLimiter("workable", 100*time.Millisecond))

	start := time.Now()
	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
	elapsed := time.Since(start)

	if hits.Load() != 2 {
		t.Fatalf("server hits = %d, want 2", hits.Load())
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms across two requests, got %v", elapsed)
	}
}
