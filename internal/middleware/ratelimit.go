// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// window holds the request times of one bucket, oldest first.
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// prune drops hits at or before cutoff.
func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}

// RateLimiter is a sliding-window limiter. Toggles and category writes
// share one budget per client.
type RateLimiter struct {
	limit  int
	period time.Duration
	key    KeyFunc
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*window

	done chan struct{}
	stop sync.Once
}

// NewRateLimiter allows limit requests per period for each client IP. A
// background goroutine drops idle buckets until Stop is called.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		period:  period,
		key:     clientIP,
		now:     time.Now,
		buckets: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop(5 * time.Minute)
	return rl
}

// KeyBy replaces the client-IP bucketing.
func (rl *RateLimiter) KeyBy(fn KeyFunc) *RateLimiter {
	rl.key = fn
	return rl
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) bucket(key string) *window {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &window{}
		rl.buckets[key] = b
	}
	return b
}

// take records a hit for key if the budget allows it. It returns the hits
// left and, when refused, how long until the oldest hit leaves the window.
func (rl *RateLimiter) take(key string) (remaining int, retryAfter time.Duration, ok bool) {
	now := rl.now()
	b := rl.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now.Add(-rl.period))

	if len(b.hits) >= rl.limit {
		wait := b.hits[0].Add(rl.period).Sub(now)
		return 0, wait, false
	}
	b.hits = append(b.hits, now)
	return rl.limit - len(b.hits), 0, true
}

// sweep removes buckets with no hits inside the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.period)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		b.prune(cutoff)
		idle := len(b.hits) == 0
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// Middleware refuses requests over budget with 429 and a Retry-After in
// whole seconds. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		remaining, wait, ok := rl.take(key)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			slog.Warn("rate limited", "key", key, "path", r.URL.Path, "retry_after", secs)
			h.Set("Retry-After", strconv.Itoa(secs))
			jsonError(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
