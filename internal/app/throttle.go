package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum inter-call delay per player per action. It
// suppresses duplicate submissions from double-taps and retries; it is not a
// correctness mechanism.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
}

// NewThrottle creates a throttle with the given minimum interval
func NewThrottle(every time.Duration) *Throttle {
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
	}
}

// Allow reports whether the player may perform the action now
func (t *Throttle) Allow(playerID, action string) bool {
	if t.every <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := playerID + ":" + action
	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.every), 1)
		t.limiters[key] = limiter
	}
	return limiter.Allow()
}
