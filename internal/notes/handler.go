package notes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
	"notekeeper/views/models"
	"notekeeper/views/pages"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the REST API and the HTML note page on r. The caller
// principal must already be in the request context.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/search", h.SearchNotes)
		r.Get("/tags/{tag}/notes", h.ListNotesByTag)

		r.Route("/notes/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/tags", h.AddTags)
			r.Post("/archive", h.flag((*Service).Archive))
			r.Post("/unarchive", h.flag((*Service).Unarchive))
			r.Post("/favorite", h.flag((*Service).Favorite))
			r.Post("/unfavorite", h.flag((*Service).Unfavorite))
		})
	})

	r.Get("/notes/{id}", h.NotePage)
}

// --- REST API Handlers ---

// ListNotes handles GET /api/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	offset := h.parseInt(r.URL.Query().Get("offset"), 0)
	limit := h.parseInt(r.URL.Query().Get("limit"), 50)

	notes, err := h.svc.List(r.Context(), caller, offset, limit)
	if err != nil {
		h.fail(w, "failed to list notes", err)
		return
	}
	h.jsonResponse(w, notes, http.StatusOK)
}

// SearchNotes handles GET /api/notes/search
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	notes, err := h.svc.Search(r.Context(), caller, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, "failed to search notes", err)
		return
	}
	h.jsonResponse(w, notes, http.StatusOK)
}

// ListNotesByTag handles GET /api/tags/{tag}/notes
func (h *Handler) ListNotesByTag(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	notes, err := h.svc.ListByTag(r.Context(), caller, chi.URLParam(r, "tag"))
	if err != nil {
		h.fail(w, "failed to list notes by tag", err)
		return
	}
	h.jsonResponse(w, notes, http.StatusOK)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Create(r.Context(), caller, input)
	if err != nil {
		h.fail(w, "failed to create note", err)
		return
	}
	h.jsonResponse(w, note, http.StatusCreated)
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	note, err := h.svc.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "failed to get note", err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// UpdateNote handles PUT /api/notes/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, "failed to update note", err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id} and echoes the removed note.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	note, err := h.svc.Delete(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "failed to delete note", err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

type addTagsInput struct {
	Tags []string `json:"tags"`
}

// AddTags handles POST /api/notes/{id}/tags
func (h *Handler) AddTags(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input addTagsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.AddTags(r.Context(), caller, chi.URLParam(r, "id"), input.Tags)
	if err != nil {
		h.fail(w, "failed to add tags", err)
		return
	}
	h.jsonResponse(w, note, http.StatusOK)
}

type flagOp func(*Service, context.Context, identity.Principal, string) (model.Note, error)

// flag adapts the archive/favorite family of operations to a handler.
func (h *Handler) flag(op flagOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := h.caller(w, r)
		if !ok {
			return
		}

		note, err := op(h.svc, r.Context(), caller, chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, "failed to set note flag", err)
			return
		}
		h.jsonResponse(w, note, http.StatusOK)
	}
}

// --- HTML ---

// NotePage handles GET /notes/{id}
func (h *Handler) NotePage(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	note, err := h.svc.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		status := StatusOf(err)
		if status == http.StatusInternalServerError {
			h.log.Error("failed to get note", "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.NotePage(h.noteToView(note)).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render note page", "error", err)
	}
}

func (h *Handler) noteToView(note model.Note) models.NoteView {
	return models.NoteView{
		ID:        note.ID,
		Title:     note.Title,
		HTML:      h.svc.RenderMarkdown(note.Content),
		Tags:      note.Tags,
		Archived:  note.Archived,
		Favorite:  note.Favorite,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// --- Helper methods ---

// StatusOf maps a Service error to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.jsonError(w, "unauthenticated", http.StatusUnauthorized)
	}
	return caller, ok
}

// fail writes err to the client. Storage failures are logged and hidden
// behind a generic message.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, "error", err)
		h.jsonError(w, "internal error", status)
		return
	}
	h.jsonError(w, err.Error(), status)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Handler) parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
