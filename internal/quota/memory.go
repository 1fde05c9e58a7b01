package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. Suitable for a single
// instance and for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Get(_ context.Context, identity string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[identity]
	return rec, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, identity string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[identity] = rec
	return nil
}

func (m *MemoryStore) Incr(_ context.Context, identity string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[identity]
	if !ok {
		return Record{}, ErrNoRecord
	}
	rec.Count++
	m.records[identity] = rec
	return rec, nil
}

func (m *MemoryStore) Close() error { return nil }
