package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notekeeper/internal/identity"
)

func TestLimiter_PerPrincipal(t *testing.T) {
	l := New(1, 2, time.Hour)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("U1"))
	assert.True(t, l.Allow("U1"))
	assert.False(t, l.Allow("U1"))

	// U2 has its own bucket.
	assert.True(t, l.Allow("U2"))

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("U1"))
}

func TestLimiter_SweepsIdle(t *testing.T) {
	l := New(1, 1, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("U1")
	clock = clock.Add(2 * time.Minute)
	l.Allow("U2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.limiters, identity.Principal("U1"))
	assert.Contains(t, l.limiters, identity.Principal("U2"))
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(0.5, 1, time.Hour)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(caller identity.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		if caller != "" {
			req = req.WithContext(identity.WithCaller(req.Context(), caller))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("U1").Code)
	rec := send("U1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("").Code)
	assert.Equal(t, http.StatusNoContent, send("").Code)
}
