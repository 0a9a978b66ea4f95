package config

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/utafrali/CatalogGo/pkg/config"
)

// Config holds all configuration for the catalog service. Missing or invalid
// values fail at startup, never mid-request.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CATALOG_HTTP_PORT" envDefault:"8080"`

	// Vendor APIs
	FakeStoreAPIURL string `env:"FAKESTORE_API_URL" envDefault:"https://fakestoreapi.com/products"`
	DummyJSONAPIURL string `env:"DUMMYJSON_API_URL" envDefault:"https://dummyjson.com/products"`
	EbayAPIURL      string `env:"EBAY_API_URL" envDefault:"https://api.ebay.com/buy/marketing/v1_beta/merchandised_product?category_id=9355"`
	EbayAPIToken    string `env:"EBAY_API_TOKEN"`

	// Currency conversion: vendors quote USD, the catalog serves KES.
	USDToKESRate string `env:"USD_TO_KES_RATE" envDefault:"130"`

	// Cache
	CacheTTLMinutes int `env:"CACHE_TTL_MINUTES" envDefault:"10"`

	// Per-vendor fetch timeout. A vendor exceeding it fails alone; the other
	// adapters keep running.
	VendorTimeoutSeconds int `env:"VENDOR_TIMEOUT_SECONDS" envDefault:"10"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Circuit breaker settings for vendor calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// exchangeRate is the parsed USDToKESRate, populated during validation.
	exchangeRate decimal.Decimal
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	for name, rawURL := range map[string]string{
		"FAKESTORE_API_URL": c.FakeStoreAPIURL,
		"DUMMYJSON_API_URL": c.DummyJSONAPIURL,
		"EBAY_API_URL":      c.EbayAPIURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}

	rate, err := decimal.NewFromString(c.USDToKESRate)
	if err != nil {
		return fmt.Errorf("invalid USD_TO_KES_RATE %q: %w", c.USDToKESRate, err)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("USD_TO_KES_RATE must be positive, got %s", rate)
	}
	c.exchangeRate = rate

	if c.CacheTTLMinutes < 1 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be at least 1, got %d", c.CacheTTLMinutes)
	}
	if c.VendorTimeoutSeconds < 1 {
		return fmt.Errorf("VENDOR_TIMEOUT_SECONDS must be at least 1, got %d", c.VendorTimeoutSeconds)
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	return nil
}

// ExchangeRate returns the validated USD-to-KES exchange rate.
func (c *Config) ExchangeRate() decimal.Decimal {
	return c.exchangeRate
}

// RedisAddr returns the Redis address string.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
