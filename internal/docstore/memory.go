package docstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	modified time.Time
	etag     string
}

// Memory is an in-memory Store. It backs handler tests and the --docs memory
// dev mode; it is not meant to survive a restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory returns an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (m *Memory) Stat(_ context.Context, path string) (*Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Meta{
		Size:         int64(len(e.data)),
		LastModified: e.modified,
		ETag:         e.etag,
	}, nil
}

func (m *Memory) Put(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	sum := md5.Sum(stored)
	m.entries[path] = memoryEntry{
		data:     stored,
		modified: time.Now().UTC(),
		etag:     hex.EncodeToString(sum[:]),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[path]; !ok {
		return ErrNotFound
	}
	delete(m.entries, path)
	return nil
}
