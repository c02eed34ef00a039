package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
)

var noteColumns = []string{"id", "owner", "title", "content", "created_at", "updated_at", "tags", "archived", "favorite"}

// SQLite stores notes in the notes table created by the db migrations.
// Insertion order is the autoincrement seq column, which an upsert keeps.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, id string) (model.Note, error) {
	query, args, err := sq.Select(noteColumns...).From("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Note{}, fmt.Errorf("build get query: %w", err)
	}

	n, err := scanNote(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

func (s *SQLite) Put(ctx context.Context, n model.Note) error {
	tags, err := json.Marshal(nonNil(n.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	var updatedAt any
	if n.UpdatedAt != nil {
		updatedAt = n.UpdatedAt.UnixNano()
	}

	query, args, err := sq.Insert("notes").
		Columns(noteColumns...).
		Values(n.ID, string(n.Owner), n.Title, n.Content, n.CreatedAt.UnixNano(), updatedAt, string(tags), n.Archived, n.Favorite).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			title = excluded.title,
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			tags = excluded.tags,
			archived = excluded.archived,
			favorite = excluded.favorite`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build put query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put note %s: %w", n.ID, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Values(ctx context.Context) ([]model.Note, error) {
	query, args, err := sq.Select(noteColumns...).From("notes").OrderBy("seq").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build values query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (model.Note, error) {
	var (
		n         model.Note
		owner     string
		createdAt int64
		updatedAt sql.NullInt64
		tags      string
	)
	if err := row.Scan(&n.ID, &owner, &n.Title, &n.Content, &createdAt, &updatedAt, &tags, &n.Archived, &n.Favorite); err != nil {
		return model.Note{}, err
	}

	n.Owner = identity.Principal(owner)
	n.CreatedAt = time.Unix(0, createdAt).UTC()
	if updatedAt.Valid {
		u := time.Unix(0, updatedAt.Int64).UTC()
		n.UpdatedAt = &u
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return model.Note{}, fmt.Errorf("decode tags: %w", err)
	}
	n.Tags = nonNil(n.Tags)
	return n, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
