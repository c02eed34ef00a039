package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/config"
	"notekeeper/internal/db"
	"notekeeper/internal/model"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleNote(i int, owner string) model.Note {
	return model.Note{
		ID:        fmt.Sprintf("note-%d", i),
		Owner:     "U" + owner,
		Title:     fmt.Sprintf("title %d", i),
		Content:   fmt.Sprintf("content %d", i),
		CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		Tags:      []string{},
	}
}

func ids(notes []model.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

// runConformance exercises the Store contract against a fresh backend.
func runConformance(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing", func(t *testing.T) {
		s := open(t)
		assert.ErrorIs(t, s.Delete(ctx, "nope"), ErrNotFound)
	})

	t.Run("empty values", func(t *testing.T) {
		s := open(t)
		values, err := s.Values(ctx)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("put get round trip", func(t *testing.T) {
		s := open(t)
		updated := base.Add(time.Hour)
		n := sampleNote(1, "1")
		n.Tags = []string{"x", "x", "y"}
		n.UpdatedAt = &updated
		n.Archived = true
		n.Favorite = true

		require.NoError(t, s.Put(ctx, n))
		got, err := s.Get(ctx, n.ID)
		require.NoError(t, err)

		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, n.Owner, got.Owner)
		assert.Equal(t, n.Title, got.Title)
		assert.Equal(t, n.Content, got.Content)
		assert.True(t, n.CreatedAt.Equal(got.CreatedAt))
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, updated.Equal(*got.UpdatedAt))
		assert.Equal(t, []string{"x", "x", "y"}, got.Tags)
		assert.True(t, got.Archived)
		assert.True(t, got.Favorite)
	})

	t.Run("absent updated_at stays absent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Put(ctx, sampleNote(1, "1")))
		got, err := s.Get(ctx, "note-1")
		require.NoError(t, err)
		assert.Nil(t, got.UpdatedAt)
		assert.NotNil(t, got.Tags)
	})

	t.Run("insertion order survives overwrite and delete", func(t *testing.T) {
		s := open(t)
		for i := 1; i <= 4; i++ {
			require.NoError(t, s.Put(ctx, sampleNote(i, "1")))
		}

		n2 := sampleNote(2, "1")
		n2.Title = "rewritten"
		require.NoError(t, s.Put(ctx, n2))
		require.NoError(t, s.Delete(ctx, "note-3"))

		values, err := s.Values(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"note-1", "note-2", "note-4"}, ids(values))
		assert.Equal(t, "rewritten", values[1].Title)

		_, err = s.Get(ctx, "note-3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := open(t)
		n := sampleNote(1, "1")
		n.Tags = []string{"a"}
		require.NoError(t, s.Put(ctx, n))
		n.Tags[0] = "mutated"

		got, err := s.Get(ctx, n.ID)
		require.NoError(t, err)
		got.Tags[0] = "mutated again"

		again, err := s.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, again.Tags)
	})
}

func TestMemory(t *testing.T) {
	runConformance(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestFile(t *testing.T) {
	runConformance(t, func(t *testing.T) Store {
		f, err := OpenFile(filepath.Join(t.TempDir(), "notes.yaml"))
		require.NoError(t, err)
		return f
	})
}

func TestFile_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "notes.yaml")

	f, err := OpenFile(path)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, f.Put(ctx, sampleNote(i, "1")))
	}
	require.NoError(t, f.Delete(ctx, "note-2"))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	values, err := reopened.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1", "note-3"}, ids(values))
	assert.True(t, values[0].CreatedAt.Equal(base.Add(time.Millisecond)))
}

func TestFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notes: [this is: not: valid"), 0o600))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestFile_WriteFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := OpenFile(filepath.Join(dir, "notes.yaml"))
	require.NoError(t, err)
	require.NoError(t, f.Put(ctx, sampleNote(1, "1")))
	require.NoError(t, f.Put(ctx, sampleNote(2, "1")))

	// A regular file where the parent directory should be makes every
	// rewrite fail.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	f.path = filepath.Join(blocker, "notes.yaml")

	before, err := f.Values(ctx)
	require.NoError(t, err)

	assert.Error(t, f.Put(ctx, sampleNote(3, "1")))

	changed := sampleNote(1, "1")
	changed.Title = "changed"
	assert.Error(t, f.Put(ctx, changed))

	assert.Error(t, f.Delete(ctx, "note-1"))

	after, err := f.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"note-1", "note-2"}, ids(after))

	_, err = f.Get(ctx, "note-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite(t *testing.T) {
	runConformance(t, func(t *testing.T) Store {
		conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "notes.db"))
		require.NoError(t, err)
		s := NewSQLite(conn)
		t.Cleanup(func() { s.Close(context.Background()) })
		return s
	})
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("NOTEKEEPER_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("NOTEKEEPER_TEST_MONGODB_URI not set")
	}

	runConformance(t, func(t *testing.T) Store {
		ctx := context.Background()
		database, err := db.ConnectMongo(ctx, uri, fmt.Sprintf("notekeeper_test_%d", time.Now().UnixNano()))
		require.NoError(t, err)
		t.Cleanup(func() {
			database.Drop(ctx)
			database.Client().Disconnect(ctx)
		})

		s := NewMongo(database)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{Storage: config.Storage{
				Backend: backend,
				Path:    filepath.Join(t.TempDir(), "notes"),
			}}
			s, err := Open(ctx, cfg, log)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close(ctx) })

			require.NoError(t, s.Put(ctx, sampleNote(1, "1")))
			_, err = s.Get(ctx, "note-1")
			assert.NoError(t, err)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{Storage: config.Storage{Backend: "etcd"}}, log)
		assert.Error(t, err)
	})
}
