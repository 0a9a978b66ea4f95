// Package dummyjson adapts the DummyJSON API to the unified Product shape.
// DummyJSON nests its records under a "products" key and carries the richest
// optional field set of the supported vendors: tags, brand, sku, weight,
// dimensions, warranty and shipping text, availability, reviews, return
// policy, minimum order quantity, meta, and an image list.
package dummyjson

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/internal/vendors"
	"github.com/utafrali/CatalogGo/pkg/logger"
)

// Adapter fetches and normalizes DummyJSON products.
type Adapter struct {
	baseURL string
	rate    decimal.Decimal
	client  vendors.HTTPClient
	logger  *slog.Logger
}

// New creates a DummyJSON adapter.
func New(baseURL string, rate decimal.Decimal, client vendors.HTTPClient, log *slog.Logger) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		rate:    rate,
		client:  client,
		logger:  logger.WithVendor(log, domain.DataSourceDummyJSON),
	}
}

// Name returns the vendor identifier recorded in Product.DataSource.
func (a *Adapter) Name() string { return domain.DataSourceDummyJSON }

type payload struct {
	Products []record `json:"products"`
}

type record struct {
	ID                   *json.Number `json:"id"`
	Title                *string      `json:"title"`
	Description          *string      `json:"description"`
	Category             *string      `json:"category"`
	Price                *json.Number `json:"price"`
	DiscountPercentage   *json.Number `json:"discountPercentage"`
	Rating               *float64     `json:"rating"`
	Stock                *int         `json:"stock"`
	Tags                 []string     `json:"tags"`
	Brand                *string      `json:"brand"`
	SKU                  *string      `json:"sku"`
	Weight               *json.Number `json:"weight"`
	Dimensions           *dimensions  `json:"dimensions"`
	WarrantyInformation  *string      `json:"warrantyInformation"`
	ShippingInformation  *string      `json:"shippingInformation"`
	AvailabilityStatus   *string      `json:"availabilityStatus"`
	Reviews              []review     `json:"reviews"`
	ReturnPolicy         *string      `json:"returnPolicy"`
	MinimumOrderQuantity *int         `json:"minimumOrderQuantity"`
	Meta                 *meta        `json:"meta"`
	Images               []string     `json:"images"`
	Thumbnail            *string      `json:"thumbnail"`
}

type dimensions struct {
	Width  *json.Number `json:"width"`
	Height *json.Number `json:"height"`
	Depth  *json.Number `json:"depth"`
}

type review struct {
	Rating        *int       `json:"rating"`
	Comment       *string    `json:"comment"`
	Date          *time.Time `json:"date"`
	ReviewerName  *string    `json:"reviewerName"`
	ReviewerEmail *string    `json:"reviewerEmail"`
}

type meta struct {
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Barcode   *string    `json:"barcode"`
	QRCode    *string    `json:"qrCode"`
}

// Fetch issues one GET against the DummyJSON products endpoint. Records
// without an id and records with unparseable numeric fields are skipped and
// counted; absent optional fields get their defaults (empty strings, zero
// numbers, nil nested structures).
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Product, error) {
	var body payload
	if err := vendors.FetchJSON(ctx, a.client, a.Name(), a.baseURL, "", &body); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(body.Products))
	for _, r := range body.Products {
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
	discount, err := vendors.DecimalOrDefault(r.DiscountPercentage, decimal.Zero)
	if err != nil {
		return domain.Product{}, err
	}
	weight, err := vendors.DecimalOrDefault(r.Weight, decimal.Zero)
	if err != nil {
		return domain.Product{}, err
	}
	dims, err := normalizeDimensions(r.Dimensions)
	if err != nil {
		return domain.Product{}, err
	}

	imageURL := vendors.StringOrDefault(r.Thumbnail, "")
	if imageURL == "" && len(r.Images) > 0 {
		imageURL = r.Images[0]
	}

	return domain.Product{
		ProductID:            r.ID.String(),
		Name:                 vendors.StringOrDefault(r.Title, ""),
		Description:          vendors.StringOrDefault(r.Description, ""),
		Category:             vendors.StringOrDefault(r.Category, ""),
		ImageURL:             imageURL,
		Rating:               vendors.Float64OrDefault(r.Rating, 0),
		RatingCount:          len(r.Reviews),
		Price:                price.Mul(a.rate),
		DiscountPercentage:   discount,
		Stock:                vendors.IntOrDefault(r.Stock, 0),
		DataSource:           domain.DataSourceDummyJSON,
		Tags:                 r.Tags,
		Brand:                vendors.StringOrDefault(r.Brand, ""),
		SKU:                  vendors.StringOrDefault(r.SKU, ""),
		Weight:               weight,
		Dimensions:           dims,
		WarrantyInformation:  vendors.StringOrDefault(r.WarrantyInformation, ""),
		ShippingInformation:  vendors.StringOrDefault(r.ShippingInformation, ""),
		AvailabilityStatus:   vendors.StringOrDefault(r.AvailabilityStatus, ""),
		ReturnPolicy:         vendors.StringOrDefault(r.ReturnPolicy, ""),
		MinimumOrderQuantity: vendors.IntOrDefault(r.MinimumOrderQuantity, 0),
		Meta:                 normalizeMeta(r.Meta),
		Reviews:              normalizeReviews(r.Reviews),
		Images:               r.Images,
	}, nil
}

func normalizeDimensions(d *dimensions) (*domain.Dimensions, error) {
	if d == nil {
		return nil, nil
	}
	width, err := vendors.DecimalOrDefault(d.Width, decimal.Zero)
	if err != nil {
		return nil, err
	}
	height, err := vendors.DecimalOrDefault(d.Height, decimal.Zero)
	if err != nil {
		return nil, err
	}
	depth, err := vendors.DecimalOrDefault(d.Depth, decimal.Zero)
	if err != nil {
		return nil, err
	}
	return &domain.Dimensions{Width: width, Height: height, Depth: depth}, nil
}

func normalizeMeta(m *meta) *domain.MetaData {
	if m == nil {
		return nil
	}
	out := &domain.MetaData{
		Barcode: vendors.StringOrDefault(m.Barcode, ""),
		QRCode:  vendors.StringOrDefault(m.QRCode, ""),
	}
	if m.CreatedAt != nil {
		out.CreatedAt = *m.CreatedAt
	}
	if m.UpdatedAt != nil {
		out.UpdatedAt = *m.UpdatedAt
	}
	return out
}

func normalizeReviews(reviews []review) []domain.Review {
	if len(reviews) == 0 {
		return nil
	}
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		rv := domain.Review{
			Rating:        vendors.IntOrDefault(r.Rating, 0),
			Comment:       vendors.StringOrDefault(r.Comment, ""),
			ReviewerName:  vendors.StringOrDefault(r.ReviewerName, ""),
			ReviewerEmail: vendors.StringOrDefault(r.ReviewerEmail, ""),
		}
		if r.Date != nil {
			rv.Date = *r.Date
		}
		out = append(out, rv)
	}
	return out
}
