package store

import (
	"context"
	"slices"
	"sync"

	"notekeeper/internal/model"
)

// Memory is an ordered in-memory Store. Values handed in and out are deep
// copies.
type Memory struct {
	mu    sync.RWMutex
	keys  []string
	items map[string]model.Note
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]model.Note)}
}

func (m *Memory) Get(_ context.Context, id string) (model.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.items[id]
	if !ok {
		return model.Note{}, ErrNotFound
	}
	return n.Clone(), nil
}

func (m *Memory) Put(_ context.Context, n model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(n)
	return nil
}

func (m *Memory) put(n model.Note) {
	if _, ok := m.items[n.ID]; !ok {
		m.keys = append(m.keys, n.ID)
	}
	m.items[n.ID] = n.Clone()
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.delete(id)
}

func (m *Memory) delete(id string) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	if i := slices.Index(m.keys, id); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
	return nil
}

func (m *Memory) Values(_ context.Context) ([]model.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.values(), nil
}

func (m *Memory) values() []model.Note {
	out := make([]model.Note, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k].Clone())
	}
	return out
}

func (m *Memory) Close(context.Context) error { return nil }
