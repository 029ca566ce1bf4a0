// Package ratelimit implements per-key token buckets for the display server.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter hands out one token per request per key. Each key starts with a
// full bucket of capacity tokens refilled at refillPerSec.
type Limiter struct {
	capacity     float64
	refillPerSec float64
	idleTTL      time.Duration
	now          func() time.Time

	mu sync.Mutex
	m  map[string]*bucket
}

// New creates a limiter. Buckets unused for longer than it takes to refill
// completely are dropped on the next Prune.
func New(capacity, refillPerSec float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	idle := time.Minute
	if refillPerSec > 0 {
		idle = time.Duration(capacity / refillPerSec * float64(time.Second))
	}
	return &Limiter{
		capacity:     capacity,
		refillPerSec: refillPerSec,
		idleTTL:      idle,
		now:          time.Now,
		m:            make(map[string]*bucket),
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	// refill
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.refillPerSec
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets that would be full again and returns how many remain.
func (l *Limiter) Prune() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.m {
		if now.Sub(b.last) >= l.idleTTL {
			delete(l.m, k)
		}
	}
	return len(l.m)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
