package models

import "time"

// NoteView represents a note for template rendering
type NoteView struct {
	ID        string
	Title     string
	HTML      string // rendered markdown body
	Tags      []string
	Archived  bool
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}
