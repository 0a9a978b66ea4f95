// Package fakestore adapts the FakeStore API (a flat JSON array of products)
// to the unified Product shape.
package fakestore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/internal/vendors"
	"github.com/utafrali/CatalogGo/pkg/logger"
)

// Adapter fetches and normalizes FakeStore products.
type Adapter struct {
	baseURL string
	rate    decimal.Decimal
	client  vendors.HTTPClient
	logger  *slog.Logger
}

// New creates a FakeStore adapter. rate is the source-to-target currency
// exchange rate applied to every price.
func New(baseURL string, rate decimal.Decimal, client vendors.HTTPClient, log *slog.Logger) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		rate:    rate,
		client:  client,
		logger:  logger.WithVendor(log, domain.DataSourceFakeStore),
	}
}

// Name returns the vendor identifier recorded in Product.DataSource.
func (a *Adapter) Name() string { return domain.DataSourceFakeStore }

// record mirrors one FakeStore product. Every optional key is a pointer so
// absence is distinguishable from a zero value.
type record struct {
	ID          *json.Number `json:"id"`
	Title       *string      `json:"title"`
	Price       *json.Number `json:"price"`
	Description *string      `json:"description"`
	Category    *string      `json:"category"`
	Image       *string      `json:"image"`
	Rating      *rating      `json:"rating"`
}

type rating struct {
	Rate  *float64 `json:"rate"`
	Count *int     `json:"count"`
}

// Fetch issues one GET against the FakeStore products endpoint and returns one
// Product per source record. Records without an id are skipped and counted;
// every other absent field gets its default (empty string, zero rating, zero
// price before conversion).
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Product, error) {
	var records []record
	if err := vendors.FetchJSON(ctx, a.client, a.Name(), a.baseURL, "", &records); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		p, err := a.normalize(r)
		if err != nil {
			vendors.RecordSkipped(a.Name())
			a.logger.WarnContext(ctx, "skipping malformed record", slog.String("error", err.Error()))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (a *Adapter) normalize(r record) (domain.Product, error) {
	if r.ID == nil {
		return domain.Product{}, vendors.ErrMissingID
	}

	price, err := vendors.DecimalOrDefault(r.Price, decimal.Zero)
	if err != nil {
		return domain.Product{}, err
	}

	var rate float64
	var count int
	if r.Rating != nil {
		rate = vendors.Float64OrDefault(r.Rating.Rate, 0)
		count = vendors.IntOrDefault(r.Rating.Count, 0)
	}

	return domain.Product{
		ProductID:   r.ID.String(),
		Name:        vendors.StringOrDefault(r.Title, ""),
		Description: vendors.StringOrDefault(r.Description, ""),
		Category:    vendors.StringOrDefault(r.Category, ""),
		ImageURL:    vendors.StringOrDefault(r.Image, ""),
		Rating:      rate,
		RatingCount: count,
		Price:       price.Mul(a.rate),
		DataSource:  domain.DataSourceFakeStore,
	}, nil
}
