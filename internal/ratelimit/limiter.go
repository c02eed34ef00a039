// Package ratelimit throttles requests per caller principal.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"notekeeper/internal/identity"
)

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Limiter keeps one token bucket per principal. Buckets idle for longer
// than idleTTL are dropped on the next sweep.
type Limiter struct {
	mu        sync.Mutex
	limiters  map[identity.Principal]*entry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[identity.Principal]*entry),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Allow reports whether p may make a request now.
func (l *Limiter) Allow(p identity.Principal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	e, ok := l.limiters[p]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[p] = e
	}
	e.lastUsed = now
	return e.limiter.AllowN(now, 1)
}

func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for p, e := range l.limiters {
		if e.lastUsed.Before(cutoff) {
			delete(l.limiters, p)
		}
	}
	l.lastSweep = now
}

// Middleware answers 429 once the caller in the request context runs out
// of budget. Requests without a caller pass through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.FromContext(r.Context())
		if ok && !l.Allow(caller) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l.rps)))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfter(rps rate.Limit) int {
	if rps <= 0 || rps >= 1 {
		return 1
	}
	return int(1/rps) + 1
}
