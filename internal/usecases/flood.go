package usecases

import (
	"sync"

	"golang.org/x/time/rate"
)

// FloodGuard keeps one token bucket per sender so a single chat cannot
// monopolize the dispatch loop. Messages over the rate are dropped
// before any command resolution happens.
type FloodGuard struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewFloodGuard(r float64, burst int) *FloodGuard {
	return &FloodGuard{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

func (f *FloodGuard) Allow(sender string) bool {
	f.mu.Lock()
	limiter, ok := f.limiters[sender]
	if !ok {
		limiter = rate.NewLimiter(f.rate, f.burst)
		f.limiters[sender] = limiter
	}
	f.mu.Unlock()
	return limiter.Allow()
}
