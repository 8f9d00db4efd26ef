package publish

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum inter-publication interval derived from
// a Hz rate, mirroring NngBus::shouldPublish/OscPublisher::shouldPublish:
// a call that arrives too soon is dropped, never queued or delayed.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter builds a limiter for hz publications per second. hz<=0
// means unlimited.
func NewRateLimiter(hz float64) *RateLimiter {
	r := &RateLimiter{}
	if hz > 0 {
		r.interval = time.Duration(float64(time.Second) / hz)
	}
	return r
}

// Allow reports whether a publication at time now should proceed, and if
// so records now as the last publication time.
func (r *RateLimiter) Allow(now time.Time) bool {
	if r.interval <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last.IsZero() || now.Sub(r.last) >= r.interval {
		r.last = now
		return true
	}
	return false
}
