package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/CatalogGo/internal/aggregator"
	"github.com/utafrali/CatalogGo/internal/cache"
	"github.com/utafrali/CatalogGo/internal/config"
	"github.com/utafrali/CatalogGo/internal/event"
	handler "github.com/utafrali/CatalogGo/internal/handler/http"
	"github.com/utafrali/CatalogGo/internal/service"
	"github.com/utafrali/CatalogGo/internal/vendors"
	"github.com/utafrali/CatalogGo/internal/vendors/dummyjson"
	"github.com/utafrali/CatalogGo/internal/vendors/ebay"
	"github.com/utafrali/CatalogGo/internal/vendors/fakestore"
	"github.com/utafrali/CatalogGo/pkg/health"
	"github.com/utafrali/CatalogGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/CatalogGo/pkg/kafka"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis client. An unreachable store is not fatal: the cache
	// layer degrades to direct aggregation until redis comes back.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, catalog cache degraded",
			slog.String("addr", cfg.RedisAddr()),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr()),
			slog.Int("db", cfg.RedisDB),
		)
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// One retrying HTTP client shared by all vendors, each behind its own
	// circuit breaker so a failing vendor never trips the others.
	vendorTimeout := time.Duration(cfg.VendorTimeoutSeconds) * time.Second
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = vendorTimeout
	baseClient := httpclient.New(clientCfg)

	rate := cfg.ExchangeRate()
	adapters := []vendors.Adapter{
		fakestore.New(cfg.FakeStoreAPIURL, rate, breakerFor(baseClient, "FakeStore", cfg, logger), logger),
		ebay.New(cfg.EbayAPIURL, cfg.EbayAPIToken, rate, breakerFor(baseClient, "eBay", cfg, logger), logger),
		dummyjson.New(cfg.DummyJSONAPIURL, rate, breakerFor(baseClient, "DummyJSON", cfg, logger), logger),
	}

	// Build the dependency graph.
	agg := aggregator.New(adapters, vendorTimeout, logger)

	cacheTTL := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	catalogCache := cache.New(cache.NewRedisStore(rdb), cacheTTL, logger)

	cacheKey := service.CacheKey([]service.VendorEndpoint{
		{Name: "FakeStore", BaseURL: cfg.FakeStoreAPIURL},
		{Name: "eBay", BaseURL: cfg.EbayAPIURL},
		{Name: "DummyJSON", BaseURL: cfg.DummyJSONAPIURL},
	}, rate)

	eventProducer := event.NewProducer(producer, logger)
	catalogService := service.NewCatalogService(catalogCache, agg, eventProducer, cacheKey, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(catalogService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// breakerFor wraps the shared HTTP client in a per-vendor circuit breaker.
func breakerFor(client *httpclient.Client, name string, cfg *config.Config, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	return httpclient.NewCircuitBreakerClient(client, cbCfg, logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
