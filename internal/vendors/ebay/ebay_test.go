package ebay

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
}

func newTestAdapter(t *testing.T, payload string, status int) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-token", decimal.RequireFromString("130"), testClient(), testLogger())
}

func TestFetch_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"merchandisedProducts": []}`))
	}))
	t.Cleanup(srv.Close)

	adapter := New(srv.URL, "secret-token", decimal.RequireFromString("130"), testClient(), testLogger())
	_, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestFetch_NormalizesRecord(t *testing.T) {
	payload := `{"merchandisedProducts": [{
		"epid": "241996398",
		"title": "Apple iPhone 15 Pro",
		"image": {"imageUrl": "https://i.ebayimg.com/images/g/abc/s-l225.jpg"},
		"averageRating": 4.5,
		"ratingCount": 812,
		"reviewCount": 400,
		"marketPriceDetails": [
			{"conditionGroup": "NEW_OTHER", "estimatedStartPrice": {"value": "649.99", "currency": "USD"}},
			{"conditionGroup": "REFURBISHED", "estimatedStartPrice": {"value": "499.99", "currency": "USD"}}
		],
		"ratingAspects": [{"name": "Battery life", "description": "Good battery life", "count": 300}]
	}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "241996398", p.ProductID)
	assert.Equal(t, "Apple iPhone 15 Pro", p.Name)
	assert.Equal(t, "https://i.ebayimg.com/images/g/abc/s-l225.jpg", p.ImageURL)
	assert.Equal(t, 4.5, p.Rating)
	assert.Equal(t, 812, p.RatingCount)
	assert.Equal(t, domain.DataSourceEbay, p.DataSource)

	// Price is the lowest condition tier after conversion: 499.99 * 130.
	assert.True(t, p.Price.Equal(decimal.RequireFromString("64998.70")), "got %s", p.Price)

	require.Len(t, p.ConditionPrices, 2)
	assert.Equal(t, "NEW_OTHER", p.ConditionPrices[0].ConditionGroup)
	assert.True(t, p.ConditionPrices[0].Price.Equal(decimal.RequireFromString("84498.70")))
	assert.Equal(t, "USD", p.ConditionPrices[0].Currency)
	assert.Equal(t, "REFURBISHED", p.ConditionPrices[1].ConditionGroup)

	require.Len(t, p.RatingAspects, 1)
	assert.Equal(t, "Battery life", p.RatingAspects[0].Name)
	assert.Equal(t, 300, p.RatingAspects[0].Count)
}

func TestFetch_RatingCountFallsBackToReviewCount(t *testing.T) {
	payload := `{"merchandisedProducts": [{"epid": "100", "reviewCount": 42}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 42, products[0].RatingCount)
}

func TestFetch_NoPriceDetailsKeepsZeroPrice(t *testing.T) {
	payload := `{"merchandisedProducts": [{"epid": "100"}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.IsZero())
	assert.Nil(t, products[0].ConditionPrices)
}

func TestFetch_TierWithoutPriceIsIgnored(t *testing.T) {
	payload := `{"merchandisedProducts": [{
		"epid": "100",
		"marketPriceDetails": [
			{"conditionGroup": "USED"},
			{"conditionGroup": "NEW", "estimatedStartPrice": {"value": "10", "currency": "USD"}}
		]
	}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, products[0].ConditionPrices, 1)
	assert.Equal(t, "NEW", products[0].ConditionPrices[0].ConditionGroup)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("1300")))
}

func TestFetch_ZeroPriceTierStaysLowest(t *testing.T) {
	payload := `{"merchandisedProducts": [{
		"epid": "100",
		"marketPriceDetails": [
			{"conditionGroup": "USED", "estimatedStartPrice": {"value": "0", "currency": "USD"}},
			{"conditionGroup": "NEW", "estimatedStartPrice": {"value": "5", "currency": "USD"}}
		]
	}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, products[0].ConditionPrices, 2)
	assert.True(t, products[0].Price.IsZero(), "got %s", products[0].Price)
}

func TestFetch_SkipsRecordWithoutEPID(t *testing.T) {
	payload := `{"merchandisedProducts": [{"title": "no epid"}, {"epid": "200"}]}`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "200", products[0].ProductID)
}

func TestFetch_VendorDown(t *testing.T) {
	adapter := newTestAdapter(t, `oops`, http.StatusInternalServerError)

	_, err := adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorUnavailable)
}

func TestFetch_MalformedBody(t *testing.T) {
	adapter := newTestAdapter(t, `{"merchandisedProducts": "nope"}`, http.StatusOK)

	_, err := adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorSchema)
}
