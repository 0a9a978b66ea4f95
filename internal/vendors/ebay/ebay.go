// Package ebay adapts the eBay merchandised-products API to the unified
// Product shape. eBay nests its records under "merchandisedProducts" and
// quotes prices per condition group rather than as a single value; the
// adapter converts every condition price and uses the lowest as the
// Product price.
package ebay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/internal/vendors"
	"github.com/utafrali/CatalogGo/pkg/logger"
)

// Adapter fetches and normalizes eBay merchandised products.
type Adapter struct {
	baseURL string
	token   string
	rate    decimal.Decimal
	client  vendors.HTTPClient
	logger  *slog.Logger
}

// New creates an eBay adapter. token is the OAuth application token sent as a
// bearer header on every request.
func New(baseURL, token string, rate decimal.Decimal, client vendors.HTTPClient, log *slog.Logger) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		token:   token,
		rate:    rate,
		client:  client,
		logger:  logger.WithVendor(log, domain.DataSourceEbay),
	}
}

// Name returns the vendor identifier recorded in Product.DataSource.
func (a *Adapter) Name() string { return domain.DataSourceEbay }

type payload struct {
	MerchandisedProducts []record `json:"merchandisedProducts"`
}

type record struct {
	EPID               *string       `json:"epid"`
	Title              *string       `json:"title"`
	Image              *image        `json:"image"`
	AverageRating      *float64      `json:"averageRating"`
	RatingCount        *int          `json:"ratingCount"`
	ReviewCount        *int          `json:"reviewCount"`
	MarketPriceDetails []priceDetail `json:"marketPriceDetails"`
	RatingAspects      []aspect      `json:"ratingAspects"`
}

type image struct {
	ImageURL *string `json:"imageUrl"`
}

type priceDetail struct {
	ConditionGroup      *string `json:"conditionGroup"`
	EstimatedStartPrice *money  `json:"estimatedStartPrice"`
}

type money struct {
	Value    *json.Number `json:"value"`
	Currency *string      `json:"currency"`
}

type aspect struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Count       *int    `json:"count"`
}

// Fetch issues one authenticated GET against the merchandised-products
// endpoint. Records without an epid are skipped and counted. RatingCount
// falls back to reviewCount when ratingCount is absent; a record with no
// price details keeps a zero Price and an empty condition list.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Product, error) {
	var body payload
	if err := vendors.FetchJSON(ctx, a.client, a.Name(), a.baseURL, a.token, &body); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(body.MerchandisedProducts))
	for _, r := range body.MerchandisedProducts {
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
	if r.EPID == nil {
		return domain.Product{}, vendors.ErrMissingID
	}

	conditions, lowest, err := a.normalizeConditionPrices(r.MarketPriceDetails)
	if err != nil {
		return domain.Product{}, err
	}

	ratingCount := vendors.IntOrDefault(r.RatingCount, vendors.IntOrDefault(r.ReviewCount, 0))

	var imageURL string
	if r.Image != nil {
		imageURL = vendors.StringOrDefault(r.Image.ImageURL, "")
	}

	return domain.Product{
		ProductID:       *r.EPID,
		Name:            vendors.StringOrDefault(r.Title, ""),
		ImageURL:        imageURL,
		Rating:          vendors.Float64OrDefault(r.AverageRating, 0),
		RatingCount:     ratingCount,
		Price:           lowest,
		DataSource:      domain.DataSourceEbay,
		ConditionPrices: conditions,
		RatingAspects:   normalizeAspects(r.RatingAspects),
	}, nil
}

// normalizeConditionPrices converts each condition-tier price to the target
// currency and returns the lowest converted price, or zero when no tier
// carries a price.
func (a *Adapter) normalizeConditionPrices(details []priceDetail) ([]domain.ConditionPrice, decimal.Decimal, error) {
	if len(details) == 0 {
		return nil, decimal.Zero, nil
	}

	conditions := make([]domain.ConditionPrice, 0, len(details))
	lowest := decimal.Zero
	priced := false
	for _, d := range details {
		if d.EstimatedStartPrice == nil || d.EstimatedStartPrice.Value == nil {
			continue
		}
		value, err := vendors.RequireDecimal(*d.EstimatedStartPrice.Value)
		if err != nil {
			return nil, decimal.Decimal{}, err
		}
		converted := value.Mul(a.rate)
		conditions = append(conditions, domain.ConditionPrice{
			ConditionGroup: vendors.StringOrDefault(d.ConditionGroup, ""),
			Price:          converted,
			Currency:       vendors.StringOrDefault(d.EstimatedStartPrice.Currency, ""),
		})
		// A zero tier price is a real price; only the first tier seen may
		// seed lowest unconditionally.
		if !priced || converted.LessThan(lowest) {
			lowest = converted
			priced = true
		}
	}
	if len(conditions) == 0 {
		return nil, decimal.Zero, nil
	}
	return conditions, lowest, nil
}

func normalizeAspects(aspects []aspect) []domain.RatingAspect {
	if len(aspects) == 0 {
		return nil
	}
	out := make([]domain.RatingAspect, 0, len(aspects))
	for _, asp := range aspects {
		out = append(out, domain.RatingAspect{
			Name:        vendors.StringOrDefault(asp.Name, ""),
			Description: vendors.StringOrDefault(asp.Description, ""),
			Count:       vendors.IntOrDefault(asp.Count, 0),
		})
	}
	return out
}
