package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Secrets are read from the
// environment (or a .env file) and never have a default.
type Config struct {
	Port         string `env:"APP_PORT" envDefault:"9999" validate:"required,numeric"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development test staging production"`
	LoggingLevel string `env:"LOGGING_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`

	// Processor selects the registered connection served by the API and the smoke harness
	Processor string `env:"PROCESSOR" envDefault:"stripe" validate:"required,oneof=stripe"`

	API        APIConfig        `envPrefix:"API_"`
	Stripe     StripeConfig     `envPrefix:"STRIPE_"`
	OpenSearch OpenSearchConfig `envPrefix:"OPENSEARCH_"`
	Smoke      SmokeConfig      `envPrefix:"SMOKE_"`

	// ExchangeDBPath enables the SQLite exchange store when set
	ExchangeDBPath string `env:"EXCHANGE_DB_PATH"`
}

// APIConfig guards the HTTP API. An empty Key disables authentication
// outside production.
type APIConfig struct {
	Key                string   `env:"KEY"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100" validate:"gt=0"`
	IPWhitelist        []string `env:"IP_WHITELIST" envSeparator:","`
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// StripeConfig holds the Stripe account credentials and endpoint
type StripeConfig struct {
	AccountID string        `env:"ACCOUNT_ID"`
	APIKey    string        `env:"API_KEY" validate:"required"`
	BaseURL   string        `env:"BASE_URL" envDefault:"https://api.stripe.com" validate:"required,url"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s" validate:"gt=0"`
}

// OpenSearchConfig configures the optional OpenSearch log sink
type OpenSearchConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	URL      string `env:"URL" envDefault:"http://localhost:9200" validate:"omitempty,url"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
}

// SmokeConfig drives the manual smoke harness
type SmokeConfig struct {
	CardNumber string `env:"CARD_NUMBER" envDefault:"4111111111111111" validate:"required,numeric"`
	Amount     int64  `env:"AMOUNT" envDefault:"100" validate:"gt=0"`
	Currency   string `env:"CURRENCY" envDefault:"GBP" validate:"len=3"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Load reads the given .env files (".env" when none are given), then parses
// and validates the process environment. Missing .env files are ignored and
// never override variables that are already set.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFrom parses configuration from the given variables instead of the
// process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its validation tags
func (c *Config) Validate() error {
	if err := Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProduction() && c.API.Key == "" {
		return errors.New("invalid configuration: API_KEY is required in production")
	}
	return nil
}
