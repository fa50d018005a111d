package secret

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/kailas-cloud/sitekit/internal/metrics"
)

// Cached memoizes successful lookups of another Store for a fixed TTL.
// Failures are never cached so a freshly provisioned key is picked up on the next call.
type Cached struct {
	next  Store
	cache *ttlcache.Cache[string, string]
}

// NewCached wraps next with a TTL cache and starts its expiration loop.
func NewCached(next Store, ttl time.Duration) *Cached {
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &Cached{next: next, cache: c}
}

// GetSecret implements Store.
func (c *Cached) GetSecret(ctx context.Context, name string) (string, error) {
	if item := c.cache.Get(name); item != nil {
		metrics.SecretCacheTotal.WithLabelValues("hit").Inc()
		return item.Value(), nil
	}
	metrics.SecretCacheTotal.WithLabelValues("miss").Inc()

	v, err := c.next.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	c.cache.Set(name, v, ttlcache.DefaultTTL)
	return v, nil
}

// Close stops the cache expiration loop.
func (c *Cached) Close() {
	c.cache.Stop()
}
