// Package cache shields the vendor APIs from repeated traffic: the aggregated
// catalog is stored serialized under a TTL, and concurrent misses for the same
// key are coalesced so only one aggregation ever runs at a time.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/utafrali/CatalogGo/internal/domain"
)

// ComputeFunc produces a fresh catalog on a cache miss. It is an alias, not a
// defined type, so CatalogCache satisfies caller-side interfaces declared with
// the plain function signature.
type ComputeFunc = func(ctx context.Context) ([]domain.Product, error)

// CatalogCache is the TTL'd catalog cache with single-flight fill.
type CatalogCache struct {
	store  Store
	ttl    time.Duration
	flight singleflight.Group
	logger *slog.Logger
}

// New creates a catalog cache over the given store.
func New(store Store, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// GetOrCompute returns the catalog under key, computing it on a miss. The
// returned bool reports whether the result came from the cache.
//
// Hit: the stored bytes are deserialized and returned with no vendor calls.
// Miss: compute runs under a per-key single flight — concurrent missing
// callers wait on and share the one in-flight computation instead of each
// hitting the vendors. The result is stored with the TTL only after compute
// fully succeeds, so a failed or abandoned aggregation never leaves a partial
// entry behind. If the store is unreachable, the cache degrades to direct
// aggregation rather than failing the request.
func (c *CatalogCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) ([]domain.Product, bool, error) {
	if products, ok := c.lookup(ctx, key); ok {
		return products, true, nil
	}

	v, err, shared := c.flight.Do(key, func() (any, error) {
		// A concurrent flight may have filled the cache while this caller
		// was waiting to enter; check once more before computing.
		if products, ok := c.lookup(ctx, key); ok {
			return products, nil
		}

		products, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		data, err := domain.MarshalCatalog(products)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "cache write failed, serving uncached result",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return products, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.logger.DebugContext(ctx, "coalesced concurrent cache fill", slog.String("key", key))
	}

	return v.([]domain.Product), false, nil
}

// lookup reads and deserializes the cached catalog. Store failures and
// corrupt entries degrade to a miss.
func (c *CatalogCache) lookup(ctx context.Context, key string) ([]domain.Product, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.WarnContext(ctx, "cache read failed, falling back to direct aggregation",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	products, err := domain.UnmarshalCatalog(data)
	if err != nil {
		c.logger.WarnContext(ctx, "discarding corrupt cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return products, true
}
