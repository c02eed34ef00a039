package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
	"notekeeper/internal/store"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator returns identifiers that are never repeated.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithIDGenerator sets the source of note ids.
func WithIDGenerator(g IDGenerator) Option { return func(s *Service) { s.ids = g } }

// WithLogger sets the logger for mutation events.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// Service is the note store: ownership-checked CRUD and filtering over a
// store.Store. Each operation holds the service lock for its whole
// read-check-write sequence, so operations never interleave.
type Service struct {
	mu    sync.RWMutex
	repo  store.Store
	clock Clock
	ids   IDGenerator
	log   *slog.Logger

	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewService creates a note service backed by repo.
func NewService(repo store.Store, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		clock: systemClock{},
		ids:   uuidGenerator{},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),

		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now is truncated to milliseconds so every backend round-trips it exactly.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// List returns the caller's notes in store order, skipping offset of them
// and returning at most limit. Negative arguments count as zero.
func (s *Service) List(ctx context.Context, caller identity.Principal, offset, limit int) ([]model.Note, error) {
	owned, err := s.filter(ctx, caller, func(model.Note) bool { return true })
	if err != nil {
		return nil, err
	}

	offset = max(offset, 0)
	limit = max(limit, 0)
	if offset >= len(owned) {
		return []model.Note{}, nil
	}
	limit = min(limit, len(owned)-offset)
	return owned[offset : offset+limit], nil
}

// ListByTag returns the caller's notes carrying tag exactly.
func (s *Service) ListByTag(ctx context.Context, caller identity.Principal, tag string) ([]model.Note, error) {
	return s.filter(ctx, caller, func(n model.Note) bool { return n.HasTag(tag) })
}

// Search returns the caller's notes whose title or content contains query,
// ignoring case.
func (s *Service) Search(ctx context.Context, caller identity.Principal, query string) ([]model.Note, error) {
	q := strings.ToLower(query)
	return s.filter(ctx, caller, func(n model.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	})
}

func (s *Service) filter(ctx context.Context, caller identity.Principal, keep func(model.Note) bool) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.repo.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	out := []model.Note{}
	for _, n := range all {
		if n.Owner == caller && keep(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Get returns the note with id if the caller owns it.
func (s *Service) Get(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.owned(ctx, caller, id)
}

// owned looks up id and checks ownership. Existence is checked first so an
// unknown id is reported as not found whoever asks.
func (s *Service) owned(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	n, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Note{}, fmt.Errorf("note with id=%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if n.Owner != caller {
		return model.Note{}, fmt.Errorf("note with id=%s: %w", id, ErrNotOwner)
	}
	return n, nil
}

// Create stores a new note owned by caller.
func (s *Service) Create(ctx context.Context, caller identity.Principal, input model.NoteInput) (model.Note, error) {
	if err := validate(input); err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := model.Note{
		ID:        s.ids.NewID(),
		Owner:     caller,
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: s.now(),
		Tags:      []string{},
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return model.Note{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.log.Debug("note created", "id", n.ID, "owner", caller)
	return n, nil
}

// Update replaces title and content and stamps UpdatedAt. The payload is
// validated before the note is looked up.
func (s *Service) Update(ctx context.Context, caller identity.Principal, id string, input model.NoteInput) (model.Note, error) {
	if err := validate(input); err != nil {
		return model.Note{}, err
	}
	return s.mutate(ctx, caller, id, "note updated", func(n *model.Note) {
		now := s.now()
		n.Title = input.Title
		n.Content = input.Content
		n.UpdatedAt = &now
	})
}

// AddTags appends tags to the note. Duplicates are kept.
func (s *Service) AddTags(ctx context.Context, caller identity.Principal, id string, tags []string) (model.Note, error) {
	return s.mutate(ctx, caller, id, "note tagged", func(n *model.Note) {
		n.Tags = append(n.Tags, tags...)
	})
}

// Archive marks a note as archived.
func (s *Service) Archive(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	return s.mutate(ctx, caller, id, "note archived", func(n *model.Note) { n.Archived = true })
}

// Unarchive clears the archived mark.
func (s *Service) Unarchive(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	return s.mutate(ctx, caller, id, "note unarchived", func(n *model.Note) { n.Archived = false })
}

// Favorite marks a note as favorite.
func (s *Service) Favorite(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	return s.mutate(ctx, caller, id, "note favorited", func(n *model.Note) { n.Favorite = true })
}

// Unfavorite clears the favorite mark.
func (s *Service) Unfavorite(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	return s.mutate(ctx, caller, id, "note unfavorited", func(n *model.Note) { n.Favorite = false })
}

// Delete removes the note and returns it as it was before removal.
func (s *Service) Delete(ctx context.Context, caller identity.Principal, id string) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return model.Note{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return model.Note{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.log.Debug("note deleted", "id", id, "owner", caller)
	return n, nil
}

func (s *Service) mutate(ctx context.Context, caller identity.Principal, id, event string, apply func(*model.Note)) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return model.Note{}, err
	}
	apply(&n)
	if err := s.repo.Put(ctx, n); err != nil {
		return model.Note{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.log.Debug(event, "id", id, "owner", caller)
	return n, nil
}

func validate(input model.NoteInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrValidation)
	}
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}
	return nil
}
