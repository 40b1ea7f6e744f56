package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a non-durable Store for tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, token string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uri, ok := m.records[token]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Token: token, OriginalURI: uri}, nil
}

func (m *Memory) Insert(ctx context.Context, token string, originalURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[token]; !exists {
		m.records[token] = originalURI
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.records[token]
	delete(m.records, token)
	return existed, nil
}

// List returns records ordered by token.
func (m *Memory) List(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for token, uri := range m.records {
		out = append(out, Record{Token: token, OriginalURI: uri})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
