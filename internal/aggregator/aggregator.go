// Package aggregator fans out to every registered vendor adapter and merges
// their normalized output into one catalog.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/internal/vendors"
)

var (
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_fetch_duration_seconds",
			Help:    "Duration of vendor catalog fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"vendor"},
	)

	productsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_products_fetched_total",
			Help: "Total number of products fetched per vendor",
		},
		[]string{"vendor"},
	)

	fetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_fetch_failures_total",
			Help: "Total number of failed vendor catalog fetches",
		},
		[]string{"vendor"},
	)
)

// VendorFailure records one vendor whose fetch failed during an aggregation
// run. The failing vendor's products are simply absent from the aggregate.
type VendorFailure struct {
	Vendor string `json:"vendor"`
	Error  string `json:"error"`
}

// Result is the outcome of one aggregation run: the merged product list in
// vendor-registration order plus any per-vendor failures.
type Result struct {
	Products []domain.Product `json:"products"`
	Failures []VendorFailure  `json:"failures,omitempty"`
}

// Aggregator invokes every registered adapter and concatenates their outputs.
// It does not deduplicate, re-sort, or validate cross-vendor consistency, and
// it is idempotent modulo vendor-side data changes.
type Aggregator struct {
	adapters      []vendors.Adapter
	vendorTimeout time.Duration
	logger        *slog.Logger
}

// New creates an aggregator over the given adapters. Registration order fixes
// the order of the merged list. vendorTimeout bounds each individual vendor
// call.
func New(adapters []vendors.Adapter, vendorTimeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		adapters:      adapters,
		vendorTimeout: vendorTimeout,
		logger:        logger,
	}
}

// Vendors returns the registered vendor names in registration order.
func (a *Aggregator) Vendors() []string {
	names := make([]string, len(a.adapters))
	for i, ad := range a.adapters {
		names[i] = ad.Name()
	}
	return names
}

type fetchOutcome struct {
	products []domain.Product
	err      error
}

// Aggregate fetches every vendor concurrently and merges the results. Each
// adapter runs under its own timeout; one vendor failing (or timing out) never
// aborts the others — its failure is recorded in the Result instead. The
// merged order is deterministic: adapter registration order, then each
// vendor's native record order, regardless of which fetch finishes first.
// Aggregate returns an error only when every vendor failed, so an empty
// catalog from a full outage is never mistaken for real data.
func (a *Aggregator) Aggregate(ctx context.Context) (*Result, error) {
	outcomes := make([]fetchOutcome, len(a.adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(i int, adapter vendors.Adapter) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, a.vendorTimeout)
			defer cancel()

			start := time.Now()
			products, err := adapter.Fetch(fetchCtx)
			fetchDuration.WithLabelValues(adapter.Name()).Observe(time.Since(start).Seconds())

			outcomes[i] = fetchOutcome{products: products, err: err}
		}(i, adapter)
	}
	wg.Wait()

	result := &Result{Products: []domain.Product{}}
	var lastErr error
	for i, outcome := range outcomes {
		name := a.adapters[i].Name()
		if outcome.err != nil {
			fetchFailures.WithLabelValues(name).Inc()
			a.logger.WarnContext(ctx, "vendor fetch failed",
				slog.String("vendor", name),
				slog.String("error", outcome.err.Error()),
			)
			result.Failures = append(result.Failures, VendorFailure{Vendor: name, Error: outcome.err.Error()})
			lastErr = outcome.err
			continue
		}
		productsFetched.WithLabelValues(name).Add(float64(len(outcome.products)))
		result.Products = append(result.Products, outcome.products...)
	}

	if len(a.adapters) > 0 && len(result.Failures) == len(a.adapters) {
		return nil, apperrors.Wrap(lastErr, "all vendors failed")
	}

	a.logger.InfoContext(ctx, "aggregation complete",
		slog.Int("products", len(result.Products)),
		slog.Int("vendors", len(a.adapters)),
		slog.Int("failures", len(result.Failures)),
	)

	return result, nil
}
