// Package ratelimit admits requests against a fixed budget per wall-clock
// minute.
//
// The window is aligned to minute boundaries (now.Truncate(time.Minute)), so
// a client that exhausts its budget at 12:00:59 is admitted again at
// 12:01:00. Throttled requests do not consume budget.
package ratelimit

import (
	"sync"
	"time"
)

// Window is the length of one rate window.
const Window = time.Minute

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is the back-off to advertise when throttled. Zero when allowed.
	RetryAfter time.Duration
	// Remaining is the budget left in the current window after this request.
	Remaining int
}

// Stats describes the current window.
type Stats struct {
	WindowStart time.Time `json:"windowStart"`
	Admitted    int       `json:"admitted"`
	Limit       int       `json:"limit"`
	Throttled   uint64    `json:"throttledTotal"`
}

// Limiter is a fixed-window counter. It is safe for concurrent use.
type Limiter struct {
	limit      int
	retryAfter time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
	throttled   uint64
}

// New returns a Limiter admitting limit requests per minute. A limit of zero
// or less disables limiting. retryAfter is reported on throttled decisions.
func New(limit int, retryAfter time.Duration) *Limiter {
	return &Limiter{limit: limit, retryAfter: retryAfter}
}

// Admit records a request at now and decides whether it may proceed.
func (l *Limiter) Admit(now time.Time) Decision {
	if l.limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}
	}
	window := now.Truncate(Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !window.Equal(l.windowStart) {
		l.windowStart = window
		l.count = 0
	}
	if l.count < l.limit {
		l.count++
		return Decision{Allowed: true, Remaining: l.limit - l.count}
	}
	l.throttled++
	return Decision{Allowed: false, RetryAfter: l.retryAfter}
}

// Stats returns the counters of the window containing now.
func (l *Limiter) Stats(now time.Time) Stats {
	window := now.Truncate(Window)
	l.mu.Lock()
	defer l.mu.Unlock()
	admitted := l.count
	if !window.Equal(l.windowStart) {
		admitted = 0
	}
	return Stats{WindowStart: window, Admitted: admitted, Limit: l.limit, Throttled: l.throttled}
}
