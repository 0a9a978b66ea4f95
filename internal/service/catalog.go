package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
	"github.com/utafrali/CatalogGo/internal/aggregator"
	"github.com/utafrali/CatalogGo/internal/domain"
)

// cacheKeyPrefix namespaces catalog entries in the shared store.
const cacheKeyPrefix = "catalog:products:"

// VendorEndpoint identifies one configured vendor for cache-key
// fingerprinting.
type VendorEndpoint struct {
	Name    string
	BaseURL string
}

// CacheKey derives a deterministic cache key from the active vendor
// configuration. Changing the vendor set, a base URL, or the exchange rate
// yields a new key, so configuration changes never serve stale entries and
// never require a manual cache flush.
func CacheKey(endpoints []VendorEndpoint, rate decimal.Decimal) string {
	parts := make([]string, 0, len(endpoints)+1)
	for _, e := range endpoints {
		parts = append(parts, e.Name+"="+e.BaseURL)
	}
	sort.Strings(parts)
	parts = append(parts, "rate="+rate.String())

	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return cacheKeyPrefix + hex.EncodeToString(sum[:8])
}

// CatalogCache is the cache-layer contract the service reads the aggregate
// through.
type CatalogCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) ([]domain.Product, error)) ([]domain.Product, bool, error)
}

// Aggregator is the fan-out contract invoked on cache misses.
type Aggregator interface {
	Aggregate(ctx context.Context) (*aggregator.Result, error)
	Vendors() []string
}

// EventPublisher publishes catalog refresh events.
type EventPublisher interface {
	PublishCatalogRefreshed(ctx context.Context, cacheKey string, vendors []string, result *aggregator.Result) error
}

// CatalogService serves the merged multi-vendor catalog. All reads go through
// the cache layer, so single-product lookups benefit from the same TTL and
// single-flight semantics as full listings.
type CatalogService struct {
	cache    CatalogCache
	agg      Aggregator
	events   EventPublisher
	cacheKey string
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service. cacheKey should come from
// CacheKey so it fingerprints the active vendor configuration.
func NewCatalogService(cache CatalogCache, agg Aggregator, events EventPublisher, cacheKey string, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		cache:    cache,
		agg:      agg,
		events:   events,
		cacheKey: cacheKey,
		logger:   logger,
	}
}

// ListProducts returns the full aggregated catalog, from cache when fresh.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, fromCache, err := s.cache.GetOrCompute(ctx, s.cacheKey, s.refresh)
	if err != nil {
		return nil, apperrors.Wrap(err, "list products")
	}

	s.logger.DebugContext(ctx, "catalog served",
		slog.Int("products", len(products)),
		slog.Bool("from_cache", fromCache),
	)
	return products, nil
}

// GetProductByID returns the first product in aggregate order whose
// normalized id matches. Ids are unique only within one vendor, so the first
// match wins; a miss is NotFound, not an error, including on an empty
// aggregate.
func (s *CatalogService) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	products, _, err := s.cache.GetOrCompute(ctx, s.cacheKey, s.refresh)
	if err != nil {
		return nil, apperrors.Wrap(err, "get product")
	}

	want := domain.NormalizeID(id)
	for i := range products {
		if domain.NormalizeID(products[i].ProductID) == want {
			return &products[i], nil
		}
	}
	return nil, apperrors.NotFound("product", id)
}

// refresh runs one live aggregation and publishes the refresh event. Event
// publishing is best-effort: a broker outage must not fail catalog reads.
func (s *CatalogService) refresh(ctx context.Context) ([]domain.Product, error) {
	result, err := s.agg.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate vendor catalogs: %w", err)
	}

	if err := s.events.PublishCatalogRefreshed(ctx, s.cacheKey, s.agg.Vendors(), result); err != nil {
		s.logger.WarnContext(ctx, "failed to publish catalog.refreshed event",
			slog.String("error", err.Error()),
		)
	}

	return result.Products, nil
}
