// Package store persists notes in an ordered key-value structure keyed by
// note id. Backends: in-memory, YAML file, SQLite and MongoDB.
package store

import (
	"context"
	"errors"

	"notekeeper/internal/model"
)

var ErrNotFound = errors.New("record not found")

// Store is an ordered map from note id to note.
//
// Values enumerates notes in insertion order. Put overwrites an existing
// record in place and keeps its position.
type Store interface {
	Get(ctx context.Context, id string) (model.Note, error)
	Put(ctx context.Context, n model.Note) error
	Delete(ctx context.Context, id string) error
	Values(ctx context.Context) ([]model.Note, error)
	Close(ctx context.Context) error
}
