package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
	"github.com/utafrali/CatalogGo/internal/domain"
)

// maxPayloadBytes caps how much of a vendor response is read.
const maxPayloadBytes = 8 << 20

// ErrMissingID marks a source record without a usable product id. Such
// records are skipped; an id is the one field no default can substitute.
var ErrMissingID = errors.New("record missing product id")

// Adapter converts one vendor's wire format into unified Products. Adapters
// issue exactly one outbound request per Fetch and never touch the cache.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// HTTPClient is the outbound client contract adapters depend on. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type HTTPClient interface {
	Get(ctx context.Context, url string) (*http.Response, error)
	GetWithBearer(ctx context.Context, url, token string) (*http.Response, error)
}

var recordsSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vendor_records_skipped_total",
		Help: "Total number of malformed vendor records skipped during normalization",
	},
	[]string{"vendor"},
)

// RecordSkipped counts a malformed vendor record that was skipped rather than
// failing the whole fetch.
func RecordSkipped(vendor string) {
	recordsSkipped.WithLabelValues(vendor).Inc()
}

// FetchJSON issues one GET against a vendor API and decodes the response body
// into target. Network failures and non-2xx statuses map to VendorUnavailable;
// an undecodable body maps to VendorSchema. An empty token sends no auth
// header.
func FetchJSON(ctx context.Context, client HTTPClient, name, url, token string, target any) error {
	var (
		resp *http.Response
		err  error
	)
	if token != "" {
		resp, err = client.GetWithBearer(ctx, url, token)
	} else {
		resp, err = client.Get(ctx, url)
	}
	if err != nil {
		return apperrors.VendorUnavailable(name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return apperrors.VendorUnavailable(name, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return apperrors.VendorSchema(name, err)
	}
	return nil
}

// Optional-field helpers. Vendor DTOs use pointer fields for every optional
// key; a nil pointer means the vendor omitted the key and the adapter's
// documented default applies.

// StringOrDefault returns *s, or def when the field was absent.
func StringOrDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// IntOrDefault returns *n, or def when the field was absent.
func IntOrDefault(n *int, def int) int {
	if n == nil {
		return def
	}
	return *n
}

// Float64OrDefault returns *f, or def when the field was absent.
func Float64OrDefault(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}

// DecimalOrDefault parses an optional JSON number into an exact decimal,
// returning def when the field was absent. A present but unparseable number
// is reported as an error so the caller can skip the record.
func DecimalOrDefault(n *json.Number, def decimal.Decimal) (decimal.Decimal, error) {
	if n == nil {
		return def, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse decimal %q: %w", n.String(), err)
	}
	return d, nil
}

// RequireDecimal parses a mandatory JSON number into an exact decimal.
func RequireDecimal(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse decimal %q: %w", n.String(), err)
	}
	return d, nil
}
