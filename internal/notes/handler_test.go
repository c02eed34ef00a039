package notes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
)

// asCaller stands in for the identity middleware: it reads the principal
// from the X-Test-Caller header.
func asCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.Header.Get("X-Test-Caller"); p != "" {
			r = r.WithContext(identity.WithCaller(r.Context(), identity.Principal(p)))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(asCaller)
	h.Routes(r)
	return r, f
}

func do(t *testing.T, h http.Handler, caller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if caller != "" {
		req.Header.Set("X-Test-Caller", caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHandler_CRUD(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, "U1", http.MethodPost, "/api/notes", `{"title":"Groceries","content":"milk, eggs"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Note](t, rec)
	assert.Equal(t, "note-1", created.ID)
	assert.Equal(t, identity.Principal("U1"), created.Owner)

	rec = do(t, h, "U1", http.MethodPut, "/api/notes/note-1", `{"title":"Groceries","content":"milk, eggs, bread"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Note](t, rec)
	assert.NotNil(t, updated.UpdatedAt)

	rec = do(t, h, "U2", http.MethodGet, "/api/notes/note-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "not owner")

	rec = do(t, h, "U1", http.MethodGet, "/api/notes/search?q=EGG", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Note](t, rec), 1)

	rec = do(t, h, "U1", http.MethodPost, "/api/notes/note-1/tags", `{"tags":["x","x"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"x", "x"}, decode[model.Note](t, rec).Tags)

	rec = do(t, h, "U1", http.MethodGet, "/api/tags/x/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Note](t, rec), 1)

	rec = do(t, h, "U1", http.MethodDelete, "/api/notes/note-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "milk, eggs, bread", decode[model.Note](t, rec).Content)

	rec = do(t, h, "U1", http.MethodGet, "/api/notes/note-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Flags(t *testing.T) {
	h, f := newTestRouter(t)
	f.create(t, "U1", "t", "c")

	tests := []struct {
		path     string
		archived bool
		favorite bool
	}{
		{"/api/notes/note-1/archive", true, false},
		{"/api/notes/note-1/favorite", true, true},
		{"/api/notes/note-1/unarchive", false, true},
		{"/api/notes/note-1/unfavorite", false, false},
	}
	for _, tt := range tests {
		rec := do(t, h, "U1", http.MethodPost, tt.path, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.path)
		n := decode[model.Note](t, rec)
		assert.Equal(t, tt.archived, n.Archived, tt.path)
		assert.Equal(t, tt.favorite, n.Favorite, tt.path)
	}

	rec := do(t, h, "U2", http.MethodPost, "/api/notes/note-1/archive", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_ListPagination(t *testing.T) {
	h, f := newTestRouter(t)
	for _, title := range []string{"a", "b", "c"} {
		f.create(t, "U1", title, "c")
	}
	f.create(t, "U2", "z", "c")

	rec := do(t, h, "U1", http.MethodGet, "/api/notes?offset=1&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]model.Note](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "b", notes[0].Title)

	rec = do(t, h, "U1", http.MethodGet, "/api/notes", "")
	assert.Len(t, decode[[]model.Note](t, rec), 3)

	rec = do(t, h, "U1", http.MethodGet, "/api/notes?offset=1&limit=9223372036854775807", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Note](t, rec), 2)

	rec = do(t, h, "U1", http.MethodGet, "/api/notes?offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandler_BadRequests(t *testing.T) {
	h, f := newTestRouter(t)
	f.create(t, "U1", "t", "c")

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"invalid json", http.MethodPost, "/api/notes", `{`, http.StatusBadRequest},
		{"empty title", http.MethodPost, "/api/notes", `{"title":" ","content":"c"}`, http.StatusBadRequest},
		{"empty content on update", http.MethodPut, "/api/notes/note-1", `{"title":"t","content":""}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/notes/nope", `{"title":"t","content":"c"}`, http.StatusNotFound},
		{"tags invalid json", http.MethodPost, "/api/notes/note-1/tags", `[`, http.StatusBadRequest},
		{"archive missing", http.MethodPost, "/api/notes/nope/archive", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "U1", tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, "", http.MethodGet, "/api/notes", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_NotePage(t *testing.T) {
	h, f := newTestRouter(t)
	f.create(t, "U1", "Groceries", "- milk\n- *eggs*")

	rec := do(t, h, "U1", http.MethodGet, "/notes/note-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Groceries</h1>")
	assert.Contains(t, rec.Body.String(), "<em>eggs</em>")

	rec = do(t, h, "U2", http.MethodGet, "/notes/note-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(ErrValidation))
	assert.Equal(t, http.StatusNotFound, StatusOf(ErrNotFound))
	assert.Equal(t, http.StatusForbidden, StatusOf(ErrNotOwner))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(ErrStorage))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(io.EOF))
}
