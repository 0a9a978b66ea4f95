package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CatalogGo/internal/domain"
	"github.com/utafrali/CatalogGo/internal/vendors"
	"github.com/utafrali/CatalogGo/internal/vendors/dummyjson"
	"github.com/utafrali/CatalogGo/internal/vendors/fakestore"
	"github.com/utafrali/CatalogGo/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubAdapter returns canned products after an optional delay, so tests can
// force slow vendors to finish last and still assert merge order.
type stubAdapter struct {
	name     string
	products []domain.Product
	err      error
	delay    time.Duration
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context) ([]domain.Product, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func product(id, source string, price string) domain.Product {
	return domain.Product{
		ProductID:  id,
		Price:      decimal.RequireFromString(price),
		DataSource: source,
	}
}

func TestAggregate_MergesInRegistrationOrder(t *testing.T) {
	// The first adapter is the slowest; its products must still come first.
	adapters := []vendors.Adapter{
		&stubAdapter{
			name:     "VendorA",
			delay:    50 * time.Millisecond,
			products: []domain.Product{product("1", "VendorA", "1300")},
		},
		&stubAdapter{
			name:     "VendorB",
			products: []domain.Product{product("A1", "VendorB", "650")},
		},
	}
	agg := New(adapters, time.Second, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "1", result.Products[0].ProductID)
	assert.Equal(t, "VendorA", result.Products[0].DataSource)
	assert.Equal(t, "A1", result.Products[1].ProductID)
	assert.Equal(t, "VendorB", result.Products[1].DataSource)
	assert.Empty(t, result.Failures)
}

func TestAggregate_OneVendorFailureIsIsolated(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "VendorA", err: errors.New("connection refused")},
		&stubAdapter{name: "VendorB", products: []domain.Product{product("A1", "VendorB", "650")}},
	}
	agg := New(adapters, time.Second, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "A1", result.Products[0].ProductID)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "VendorA", result.Failures[0].Vendor)
	assert.Contains(t, result.Failures[0].Error, "connection refused")
}

func TestAggregate_SlowVendorTimesOutWithoutAbortingOthers(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "Slow", delay: time.Second, products: []domain.Product{product("9", "Slow", "1")}},
		&stubAdapter{name: "Fast", products: []domain.Product{product("1", "Fast", "2")}},
	}
	agg := New(adapters, 20*time.Millisecond, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Fast", result.Products[0].DataSource)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "Slow", result.Failures[0].Vendor)
}

func TestAggregate_AllVendorsFailed(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "VendorA", err: errors.New("down")},
		&stubAdapter{name: "VendorB", err: errors.New("also down")},
	}
	agg := New(adapters, time.Second, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "all vendors failed")
}

func TestAggregate_EmptyVendorResponse(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "VendorA", products: []domain.Product{}},
	}
	agg := New(adapters, time.Second, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Failures)
}

func TestAggregate_RepeatedRunsProduceIdenticalOutput(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "VendorA", delay: 10 * time.Millisecond, products: []domain.Product{
			product("1", "VendorA", "1300"),
			product("2", "VendorA", "2600"),
		}},
		&stubAdapter{name: "VendorB", products: []domain.Product{product("A1", "VendorB", "650")}},
	}
	agg := New(adapters, time.Second, testLogger())

	first, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background())
	require.NoError(t, err)

	firstBytes, err := domain.MarshalCatalog(first.Products)
	require.NoError(t, err)
	secondBytes, err := domain.MarshalCatalog(second.Products)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestAggregate_ConvertsAndMergesLiveAdapters(t *testing.T) {
	fakeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Widget", "price": 10}]`))
	}))
	t.Cleanup(fakeSrv.Close)
	dummySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [{"id": 11, "title": "Gadget", "price": 5}]}`))
	}))
	t.Cleanup(dummySrv.Close)

	rate := decimal.RequireFromString("130")
	client := httpclient.New(httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
	adapters := []vendors.Adapter{
		fakestore.New(fakeSrv.URL, rate, client, testLogger()),
		dummyjson.New(dummySrv.URL, rate, client, testLogger()),
	}
	agg := New(adapters, time.Second, testLogger())

	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Products, 2)

	assert.Equal(t, "1", result.Products[0].ProductID)
	assert.Equal(t, domain.DataSourceFakeStore, result.Products[0].DataSource)
	assert.True(t, result.Products[0].Price.Equal(decimal.RequireFromString("1300")),
		"got %s", result.Products[0].Price)

	assert.Equal(t, "11", result.Products[1].ProductID)
	assert.Equal(t, domain.DataSourceDummyJSON, result.Products[1].DataSource)
	assert.True(t, result.Products[1].Price.Equal(decimal.RequireFromString("650")),
		"got %s", result.Products[1].Price)
}

func TestVendors_ReturnsRegistrationOrder(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "FakeStore"},
		&stubAdapter{name: "eBay"},
		&stubAdapter{name: "DummyJSON"},
	}
	agg := New(adapters, time.Second, testLogger())
	assert.Equal(t, []string{"FakeStore", "eBay", "DummyJSON"}, agg.Vendors())
}
