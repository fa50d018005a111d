package item

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/catalog"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
)

// Memory is an in-process catalog. Query results are ordered by item ID.
type Memory struct {
	mu    sync.RWMutex
	items map[string]catalog.Item
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]catalog.Item)}
}

// EnsureIndex is a no-op; predicates are evaluated directly.
func (m *Memory) EnsureIndex(context.Context) error { return nil }

// UpsertBatch stores or replaces items.
func (m *Memory) UpsertBatch(_ context.Context, items []catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.ID()] = it
	}
	return nil
}

// Get returns an item by ID.
func (m *Memory) Get(_ context.Context, id string) (catalog.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return catalog.Item{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	return it, nil
}

// Delete removes an item.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

// Query returns one page of items matching p and the total match count.
func (m *Memory) Query(_ context.Context, p filter.Predicate, offset, limit int) ([]catalog.Item, int, error) {
	m.mu.RLock()
	matched := make([]catalog.Item, 0, len(m.items))
	for _, it := range m.items {
		if p.Matches(it.Fields()) {
			matched = append(matched, it)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b catalog.Item) int {
		return strings.Compare(a.ID(), b.ID())
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	}
	return matched[offset:end], total, nil
}
