package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"notekeeper/internal/model"
)

type fileSnapshot struct {
	Notes []model.Note `yaml:"notes"`
}

// File is a Memory store mirrored to a YAML document. Every mutation
// rewrites the whole document through a temp file and rename.
type File struct {
	*Memory
	path string
}

// OpenFile loads the document at path, if any.
func OpenFile(path string) (*File, error) {
	f := &File{Memory: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes file: %w", err)
	}

	var snap fileSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode notes file %s: %w", path, err)
	}
	for _, n := range snap.Notes {
		f.Memory.put(n)
	}
	return f, nil
}

func (f *File) Put(_ context.Context, n model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.items[n.ID]
	f.put(n)
	if err := f.persist(); err != nil {
		if existed {
			f.items[n.ID] = prev
		} else {
			_ = f.delete(n.ID)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.items[id]
	if !ok {
		return ErrNotFound
	}
	pos := slices.Index(f.keys, id)
	_ = f.delete(id)
	if err := f.persist(); err != nil {
		f.keys = slices.Insert(f.keys, pos, id)
		f.items[id] = prev
		return err
	}
	return nil
}

func (f *File) persist() error {
	data, err := yaml.Marshal(fileSnapshot{Notes: f.values()})
	if err != nil {
		return fmt.Errorf("encode notes file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".notes-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp notes file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write notes file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync notes file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close notes file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace notes file: %w", err)
	}
	return nil
}
