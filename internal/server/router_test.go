package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/identity"
	"notekeeper/internal/logging"
	"notekeeper/internal/mcp"
	"notekeeper/internal/model"
	"notekeeper/internal/notes"
	"notekeeper/internal/ratelimit"
	"notekeeper/internal/store"
)

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) (http.Handler, *identity.Tokens) {
	t.Helper()
	log := logging.Discard()
	svc := notes.NewService(store.NewMemory(), notes.WithLogger(log))
	tokens := identity.NewTokens("test-key", "notekeeper", time.Hour)
	return NewRouter(notes.NewHandler(svc, log), mcp.NewServer(svc), tokens, limiter, log), tokens
}

func bearer(t *testing.T, tokens *identity.Tokens, p identity.Principal) string {
	t.Helper()
	raw, err := tokens.Issue(p)
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_RequiresToken(t *testing.T) {
	h, _ := newTestServer(t, nil)

	for _, path := range []string{"/api/notes", "/notes/x", "/mcp"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_OwnerScoped(t *testing.T) {
	h, tokens := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"t","content":"c"}`))
	req.Header.Set("Authorization", bearer(t, tokens, "U1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Note
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, identity.Principal("U1"), created.Owner)

	req = httptest.NewRequest(http.MethodGet, "/api/notes/"+created.ID, nil)
	req.Header.Set("Authorization", bearer(t, tokens, "U2"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/notes/"+created.ID, nil)
	req.Header.Set("Authorization", bearer(t, tokens, "U1"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimited(t *testing.T) {
	h, tokens := newTestServer(t, ratelimit.New(0.001, 2, time.Hour))
	auth := bearer(t, tokens, "U1")

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
