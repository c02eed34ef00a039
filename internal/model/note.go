package model

import (
	"slices"
	"time"

	"notekeeper/internal/identity"
)

// Note is a single piece of caller-owned text content.
type Note struct {
	ID        string             `json:"id" yaml:"id"`
	Owner     identity.Principal `json:"owner" yaml:"owner"`
	Title     string             `json:"title" yaml:"title"`
	Content   string             `json:"content" yaml:"content"` // markdown
	CreatedAt time.Time          `json:"createdAt" yaml:"created_at"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
	Tags      []string           `json:"tags" yaml:"tags"`
	Archived  bool               `json:"archived" yaml:"archived"`
	Favorite  bool               `json:"favorite" yaml:"favorite"`
}

// NoteInput is the payload for creating or updating a note
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Clone returns a copy of n that shares no memory with it.
func (n Note) Clone() Note {
	out := n
	if n.UpdatedAt != nil {
		u := *n.UpdatedAt
		out.UpdatedAt = &u
	}
	out.Tags = slices.Clone(n.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

// HasTag reports whether tag is one of the note's tags, compared exactly.
func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}
