package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Data source identifiers for vendor provenance. ProductIDs are only unique
// within a single vendor's result set; cross-vendor collisions are kept as
// separate entries distinguished by DataSource.
const (
	DataSourceFakeStore = "FakeStore"
	DataSourceDummyJSON = "DummyJSON"
	DataSourceEbay      = "eBay"
)

// Product is the unified representation every vendor adapter normalizes into.
// ProductID is a string superset of the vendors' heterogeneous id types. Price
// is always expressed in the target currency; adapters apply the configured
// exchange rate before constructing a Product. A Product is never mutated
// after construction.
type Product struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`

	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`

	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Stock              int             `json:"stock"`

	DataSource string `json:"data_source"`

	// Vendor-specific optional fields. Absent when a vendor does not supply
	// them; each adapter applies its own documented default.
	Tags                 []string         `json:"tags,omitempty"`
	Brand                string           `json:"brand,omitempty"`
	SKU                  string           `json:"sku,omitempty"`
	Weight               decimal.Decimal  `json:"weight"`
	Dimensions           *Dimensions      `json:"dimensions,omitempty"`
	WarrantyInformation  string           `json:"warranty_information,omitempty"`
	ShippingInformation  string           `json:"shipping_information,omitempty"`
	AvailabilityStatus   string           `json:"availability_status,omitempty"`
	ReturnPolicy         string           `json:"return_policy,omitempty"`
	MinimumOrderQuantity int              `json:"minimum_order_quantity,omitempty"`
	Meta                 *MetaData        `json:"meta,omitempty"`
	Reviews              []Review         `json:"reviews,omitempty"`
	Images               []string         `json:"images,omitempty"`
	ConditionPrices      []ConditionPrice `json:"condition_prices,omitempty"`
	RatingAspects        []RatingAspect   `json:"rating_aspects,omitempty"`
}

// Review is a child of Product with no identity of its own across vendors.
type Review struct {
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	ReviewerName  string    `json:"reviewer_name"`
	ReviewerEmail string    `json:"reviewer_email"`
}

// Dimensions is a value object embedded in Product.
type Dimensions struct {
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Depth  decimal.Decimal `json:"depth"`
}

// MetaData is a value object embedded in Product.
type MetaData struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Barcode   string    `json:"barcode"`
	QRCode    string    `json:"qr_code"`
}

// ConditionPrice holds one condition-tier price for vendors that quote
// multiple conditions per listing (eBay). Price is converted to the target
// currency; Currency records the source currency for reference.
type ConditionPrice struct {
	ConditionGroup string          `json:"condition_group"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
}

// RatingAspect is a named review aspect such as "Good value".
type RatingAspect struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`
}

// NormalizeID canonicalizes a product id for lookup comparison. Vendor ids are
// compared trimmed and case-insensitively.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// MarshalCatalog serializes an aggregated product list for cache storage. The
// encoding round-trips the full Product shape losslessly, including nested
// optional structures.
func MarshalCatalog(products []Product) ([]byte, error) {
	data, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return data, nil
}

// UnmarshalCatalog deserializes a cached product list.
func UnmarshalCatalog(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return products, nil
}
