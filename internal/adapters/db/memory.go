package db

import (
	"context"
	"sort"
	"sync"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// Memory is an in-memory ports.Database. It backs tests and dry runs where
// persisting records would be noise.
type Memory struct {
	mu      sync.RWMutex
	records map[string]domain.InstalledRecord
}

// NewMemory creates an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]domain.InstalledRecord),
	}
}

// Get returns the record for name, or nil, nil when absent.
func (m *Memory) Get(_ context.Context, name string) (*domain.InstalledRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[name]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put stores rec, replacing any previous record for the same name.
func (m *Memory) Put(_ context.Context, rec domain.InstalledRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.Name] = rec
	return nil
}

// List returns all records ordered by name.
func (m *Memory) List(_ context.Context) ([]domain.InstalledRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]domain.InstalledRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
