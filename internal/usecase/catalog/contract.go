package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/sitekit/internal/domain/catalog"
)

// Repository persists catalog items.
type Repository interface {
	UpsertBatch(ctx context.Context, items []domcat.Item) error
	Get(ctx context.Context, id string) (domcat.Item, error)
	Delete(ctx context.Context, id string) error
}
