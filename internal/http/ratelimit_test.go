package http

import (
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", now) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1", now.Add(time.Second)) {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.allow("10.0.0.2", now) {
		t.Fatal("other clients have their own window")
	}
	if !rl.allow("10.0.0.1", now.Add(time.Minute)) {
		t.Fatal("a new window should reset the count")
	}
}

func TestRateLimiter_CleanupStaleEntries(t *testing.T) {
	rl := newRateLimiter(10)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.allow("stale", now.Add(-11*time.Minute))
	rl.allow("fresh", now.Add(-time.Minute))

	if removed := rl.cleanupStaleEntries(now); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := rl.clients["fresh"]; !ok {
		t.Fatal("fresh client should be kept")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1)
	rl.stop()
	rl.stop()
}
