package publish

import (
	"testing"
	"time"
)

// TestRateLimitBoundsPublicationCount mirrors spec §8 scenario 5: a 10Hz
// limiter fed 30 ticks across a 100ms window allows at most 2.
func TestRateLimitBoundsPublicationCount(t *testing.T) {
	r := NewRateLimiter(10)
	start := time.Now()
	allowed := 0
	for i := 0; i < 30; i++ {
		now := start.Add(time.Duration(i) * (100 * time.Millisecond / 30))
		if r.Allow(now) {
			allowed++
		}
	}
	if allowed > 2 {
		t.Fatalf("expected at most 2 publications in 100ms at 10Hz, got %d", allowed)
	}
}

func TestUnlimitedRateAlwaysAllows(t *testing.T) {
	r := NewRateLimiter(0)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !r.Allow(now) {
			t.Fatalf("expected unlimited limiter to always allow")
		}
	}
}
