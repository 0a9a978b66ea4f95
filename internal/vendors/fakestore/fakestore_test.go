package fakestore

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
	return New(srv.URL, decimal.RequireFromString("130"), testClient(), testLogger())
}

func TestFetch_NormalizesFullRecord(t *testing.T) {
	payload := `[{
		"id": 1,
		"title": "Fjallraven Backpack",
		"price": 109.95,
		"description": "Fits 15 inch laptops",
		"category": "men's clothing",
		"image": "https://fakestoreapi.com/img/81fPKd.jpg",
		"rating": {"rate": 3.9, "count": 120}
	}]`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "1", p.ProductID)
	assert.Equal(t, "Fjallraven Backpack", p.Name)
	assert.Equal(t, "Fits 15 inch laptops", p.Description)
	assert.Equal(t, "men's clothing", p.Category)
	assert.Equal(t, "https://fakestoreapi.com/img/81fPKd.jpg", p.ImageURL)
	assert.Equal(t, 3.9, p.Rating)
	assert.Equal(t, 120, p.RatingCount)
	assert.Equal(t, domain.DataSourceFakeStore, p.DataSource)

	// 109.95 * 130 must be exact, no floating drift.
	assert.True(t, p.Price.Equal(decimal.RequireFromString("14293.50")),
		"got price %s", p.Price)
}

func TestFetch_MissingOptionalFieldsGetDefaults(t *testing.T) {
	adapter := newTestAdapter(t, `[{"id": 7}]`, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "7", p.ProductID)
	assert.Empty(t, p.Name)
	assert.Empty(t, p.Description)
	assert.Empty(t, p.Category)
	assert.Empty(t, p.ImageURL)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.RatingCount)
	assert.True(t, p.Price.IsZero())
}

func TestFetch_SkipsRecordWithoutID(t *testing.T) {
	payload := `[{"title": "no id"}, {"id": 2, "price": 5}]`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "2", products[0].ProductID)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("650")))
}

func TestFetch_SkipsRecordWithUnparseablePrice(t *testing.T) {
	// json.Number tolerates any numeric literal, so force a bad decimal via
	// an exponent overflow the decimal package rejects.
	payload := `[{"id": 1, "price": 1e99999999999}, {"id": 2}]`
	adapter := newTestAdapter(t, payload, http.StatusOK)

	products, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "2", products[0].ProductID)
}

func TestFetch_VendorDown(t *testing.T) {
	adapter := newTestAdapter(t, `oops`, http.StatusBadGateway)

	_, err := adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorUnavailable)
}

func TestFetch_MalformedEnvelope(t *testing.T) {
	adapter := newTestAdapter(t, `{"not": "an array"}`, http.StatusOK)

	_, err := adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorSchema)
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	adapter := New(srv.URL, decimal.RequireFromString("130"), testClient(), testLogger())

	_, err := adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrVendorUnavailable)
}
