// Package ratelimit bounds calls to the external validation collaborator.
// It keeps one token bucket per resource key, refills automatically across
// the configured window, and exposes remaining-budget and reset-time for
// observability.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures a Limiter.
type Config struct {
	// Requests is the budget per window. A zero budget blocks every
	// acquisition, which the validation gate degrades to WARN.
	Requests int

	// Window is the time window the budget applies to.
	Window time.Duration

	// Burst is the burst capacity; defaults to Requests.
	Burst int
}

// Limiter is a per-resource-key token bucket rate limiter. It is safe for
// concurrent use and shared process-wide across orchestrator runs.
type Limiter struct {
	config   Config
	perKey   rate.Limit
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// New creates a Limiter from the given config. Burst defaults to Requests
// when unset; Window defaults to one minute.
func New(config Config) *Limiter {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Burst == 0 {
		config.Burst = config.Requests
	}

	var perKey rate.Limit
	if config.Requests > 0 {
		perKey = rate.Limit(float64(config.Requests) / config.Window.Seconds())
	}

	return &Limiter{
		config:   config,
		perKey:   perKey,
		limiters: make(map[string]*rate.Limiter),
	}
}

// TryAcquire consumes one token from the bucket for key. It never blocks;
// a false return means the budget for this window is exhausted.
func (l *Limiter) TryAcquire(key string) bool {
	return l.getOrCreate(key).Allow()
}

// Remaining returns the whole tokens currently available for key.
func (l *Limiter) Remaining(key string) int {
	tokens := l.getOrCreate(key).Tokens()
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// ResetAfter returns how long until the next token becomes available for
// key. Returns zero when a token is available now, and the full window
// when the budget is permanently zero.
func (l *Limiter) ResetAfter(key string) time.Duration {
	lim := l.getOrCreate(key)
	if lim.Limit() == 0 {
		return l.config.Window
	}

	r := lim.Reserve()
	delay := r.Delay()
	r.Cancel()
	return delay
}

// getOrCreate returns the bucket for key, creating it on first use.
func (l *Limiter) getOrCreate(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.perKey, l.config.Burst)
	l.limiters[key] = lim
	return lim
}
