package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process tree used for demos and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	trees map[string][]byte
	errs  map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trees: make(map[string][]byte),
		errs:  make(map[string]error),
	}
}

// Set stores raw JSON at path.
func (m *MemoryStore) Set(path string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[normalizePath(path)] = append([]byte(nil), raw...)
}

// SetJSON marshals v and stores it at path.
func (m *MemoryStore) SetJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Set(path, b)
	return nil
}

// Delete removes the tree at path.
func (m *MemoryStore) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trees, normalizePath(path))
}

// FailWith makes every Get on path return err until cleared with a nil err.
func (m *MemoryStore) FailWith(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, normalizePath(path))
		return
	}
	m.errs[normalizePath(path)] = err
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := normalizePath(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.errs[p]; ok {
		return nil, err
	}
	raw, ok := m.trees[p]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

var _ Store = (*MemoryStore)(nil)
