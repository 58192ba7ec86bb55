package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in a map. Blobs are copied on the way in and out,
// so callers may reuse their buffers. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	size  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return bytes.Clone(data), nil
}

func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	blob := bytes.Clone(data)
	if blob == nil {
		blob = []byte{}
	}

	m.mu.Lock()
	m.size += int64(len(blob)) - int64(len(m.blobs[name]))
	m.blobs[name] = blob
	m.mu.Unlock()
	return nil
}

// Delete is a no-op for missing names.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	m.size -= int64(len(m.blobs[name]))
	delete(m.blobs, name)
	m.mu.Unlock()
	return nil
}

// List returns the sorted names starting with prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := slices.Sorted(maps.Keys(m.blobs))
	return slices.DeleteFunc(names, func(n string) bool {
		return !strings.HasPrefix(n, prefix)
	}), nil
}

// Len returns the number of blobs held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Size returns the total payload bytes held.
func (m *MemoryStore) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}
