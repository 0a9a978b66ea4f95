package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/CatalogGo/internal/aggregator"
	pkgkafka "github.com/utafrali/CatalogGo/pkg/kafka"
	"github.com/utafrali/CatalogGo/pkg/logger"
)

// TopicCatalogRefreshed carries one event per live aggregation run.
const TopicCatalogRefreshed = "catalog.vendor_products.refreshed"

// Aggregate type constant.
const AggregateTypeCatalog = "catalog"

// Source identifier for events originating from this service.
const SourceCatalogService = "catalog-service"

// CatalogRefreshedData is the payload for a catalog refresh event. It records
// what the aggregation produced, including any vendors that failed and were
// excluded from the refreshed catalog.
type CatalogRefreshedData struct {
	CacheKey     string          `json:"cache_key"`
	ProductCount int             `json:"product_count"`
	Vendors      []string        `json:"vendors"`
	Failures     []VendorFailure `json:"failures,omitempty"`
}

// VendorFailure is the per-vendor failure payload within refresh events.
type VendorFailure struct {
	Vendor string `json:"vendor"`
	Error  string `json:"error"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCatalogRefreshed publishes a catalog.refreshed event for one
// aggregation run.
func (p *Producer) PublishCatalogRefreshed(ctx context.Context, cacheKey string, vendors []string, result *aggregator.Result) error {
	failures := make([]VendorFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, VendorFailure{Vendor: f.Vendor, Error: f.Error})
	}

	data := CatalogRefreshedData{
		CacheKey:     cacheKey,
		ProductCount: len(result.Products),
		Vendors:      vendors,
		Failures:     failures,
	}

	evt, err := pkgkafka.NewEvent(TopicCatalogRefreshed, cacheKey, AggregateTypeCatalog, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create catalog.refreshed event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicCatalogRefreshed, evt); err != nil {
		return fmt.Errorf("publish catalog.refreshed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published catalog.refreshed event",
		slog.Int("product_count", data.ProductCount),
		slog.Int("failures", len(failures)),
	)

	return nil
}
