// Package dataset holds the result set a page's search controls are bound to.
package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/catalog"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
	"github.com/kailas-cloud/sitekit/internal/metrics"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 50

// Querier lists catalog items matching a predicate.
type Querier interface {
	Query(ctx context.Context, p filter.Predicate, offset, limit int) ([]catalog.Item, int, error)
}

// Snapshot is the committed view of a dataset.
type Snapshot struct {
	Filter   filter.Predicate
	Items    []catalog.Item
	Total    int
	Revision uint64
}

// Dataset is a filtered view over the catalog with exactly one active predicate.
type Dataset struct {
	catalog  Querier
	pageSize int

	mu   sync.RWMutex
	view Snapshot
}

// New creates a Dataset. The view is empty until the first SetFilter.
func New(q Querier, pageSize int) *Dataset {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Dataset{catalog: q, pageSize: pageSize}
}

// SetFilter replaces the active predicate and refreshes the view.
// A revision older than the committed one is rejected with domain.ErrSuperseded.
// On query failure the previous view stays in place.
func (d *Dataset) SetFilter(ctx context.Context, revision uint64, p filter.Predicate) error {
	start := time.Now()
	items, total, err := d.catalog.Query(ctx, p, 0, d.pageSize)
	metrics.FilterApplyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("query catalog for %s: %w", p, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if revision < d.view.Revision {
		return fmt.Errorf("revision %d behind %d: %w", revision, d.view.Revision, domain.ErrSuperseded)
	}
	d.view = Snapshot{Filter: p, Items: items, Total: total, Revision: revision}
	return nil
}

// View returns the committed snapshot.
func (d *Dataset) View() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// PageSize returns the number of items fetched per apply.
func (d *Dataset) PageSize() int { return d.pageSize }
