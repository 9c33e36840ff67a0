package ratelimit

import (
    "sync"
    "time"
)

// bucket is a token bucket refilled continuously at refillRate.
type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

// Limiter keeps one token bucket per key. Keys are typically a route name
// or a patient id; buckets are created lazily on first use.
type Limiter struct {
    mu sync.Mutex
    m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow consumes one token for key, creating the bucket full on first sight.
// capacity and refillPerSec only apply when the bucket is created.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := time.Now()
    l.mu.Lock()
    defer l.mu.Unlock()

    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity {
            b.tokens = b.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return true
    }
    return false
}
