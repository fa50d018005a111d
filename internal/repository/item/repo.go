// Package item stores catalog items and answers filter queries over them.
package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sitekit/internal/db"
	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/catalog"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
)

const (
	// pipelineSize is the number of HSETs sent per DoMulti round-trip.
	pipelineSize = 100
	// pipelineConcurrency bounds in-flight pipelines during an import.
	pipelineConcurrency = 4
	// wholeValueSeparator never occurs in descriptions, so the whole field is one tag.
	wholeValueSeparator = "\x1f"
)

// store is the consumer interface for catalog items (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchFilter(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo keeps items as hashes under "<prefix>item:<id>" indexed by "<prefix>items:idx".
type Repo struct {
	store  store
	prefix string
}

// New creates an item repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// IndexDefinition returns the FT schema backing contains queries.
// List fields split on commas; the description is a single tag.
func (r *Repo) IndexDefinition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.indexName()).
		Prefix(r.keyPrefix()).
		ContainsTag(category.FieldSKUs, category.ListSeparator).
		ContainsTag(category.FieldDescription, wholeValueSeparator).
		ContainsTag(category.FieldManufacturerPNs, category.ListSeparator).
		Text(catalog.FieldTitle).
		Build()
}

// EnsureIndex creates the search index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName(), err)
	}
	if exists {
		return nil
	}

	def, err := r.IndexDefinition()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// UpsertBatch writes items in pipelined chunks.
func (r *Repo) UpsertBatch(ctx context.Context, items []catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pipelineConcurrency)

	for start := 0; start < len(items); start += pipelineSize {
		end := min(start+pipelineSize, len(items))
		chunk := make([]db.HashSetItem, 0, end-start)
		for _, it := range items[start:end] {
			chunk = append(chunk, db.HashSetItem{Key: r.itemKey(it.ID()), Fields: it.Fields()})
		}
		g.Go(func() error {
			if err := r.store.HSetMulti(gctx, chunk); err != nil {
				return fmt.Errorf("hset items %d-%d: %w", start, end-1, err)
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // chunks already wrap
}

// Get returns an item by ID.
func (r *Repo) Get(ctx context.Context, id string) (catalog.Item, error) {
	fields, err := r.store.HGetAll(ctx, r.itemKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return catalog.Item{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
		}
		return catalog.Item{}, fmt.Errorf("hgetall %s: %w", r.itemKey(id), err)
	}
	return catalog.FromFields(id, fields)
}

// Delete removes an item.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.itemKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Query returns one page of items matching p and the total match count.
func (r *Repo) Query(ctx context.Context, p filter.Predicate, offset, limit int) ([]catalog.Item, int, error) {
	result, err := r.store.SearchFilter(ctx, &db.FilterQuery{
		IndexName: r.indexName(),
		Filter:    p,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", p, err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	items := make([]catalog.Item, 0, len(result.Entries))
	for _, e := range result.Entries {
		it, err := catalog.FromFields(r.extractID(e.Key), e.Fields)
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, result.Total, nil
}

func (r *Repo) keyPrefix() string {
	return r.prefix + "item:"
}

func (r *Repo) itemKey(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) indexName() string {
	return r.prefix + "items:idx"
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix())
}
