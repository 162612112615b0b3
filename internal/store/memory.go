package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	tenants map[string]map[string]Record
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{tenants: make(map[string]map[string]Record)}
}

func (m *Memory) Put(_ context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	rec.Document = slices.Clone(rec.Document)
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.tenants[rec.Tenant]
	if records == nil {
		records = make(map[string]Record)
		m.tenants[rec.Tenant] = records
	}
	records[rec.Name] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, tenant, name string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tenants[tenant][name]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Document = slices.Clone(rec.Document)
	return rec, nil
}

// List returns the tenant's records ordered by name.
func (m *Memory) List(_ context.Context, tenant string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.tenants[tenant]))
	for _, rec := range m.tenants[tenant] {
		rec.Document = slices.Clone(rec.Document)
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, tenant, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[tenant][name]; !ok {
		return ErrNotFound
	}
	delete(m.tenants[tenant], name)
	return nil
}

func (m *Memory) Close() error { return nil }
