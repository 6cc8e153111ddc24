package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Price source names accepted in PRICE_SOURCES
const (
	SourceDummy      = "dummy"
	SourceFile       = "file"
	SourceTwelveData = "twelvedata"
)

// Config holds all application configuration
type Config struct {
	Symbol     string  `envconfig:"SYMBOL" default:"SOL-USDC" validate:"required"`
	Interval   string  `envconfig:"INTERVAL" default:"1h" validate:"oneof=1min 5min 15min 30min 45min 1h 2h 4h 8h 1day 1week"`
	Direction  string  `envconfig:"DIRECTION" default:"LONG" validate:"oneof=LONG SHORT"`
	CapitalUSD float64 `envconfig:"CAPITAL_USD" default:"10000" validate:"gt=0"`
	Leverage   float64 `envconfig:"LEVERAGE" default:"2" validate:"gt=1"`

	MAShortPeriod   int `envconfig:"MA_SHORT_PERIOD" default:"20" validate:"gt=0"`
	MALongPeriod    int `envconfig:"MA_LONG_PERIOD" default:"200" validate:"gtfield=MAShortPeriod"`
	WarmupPeriod    int `envconfig:"WARMUP_PERIOD" default:"200" validate:"gt=0"`
	HistoryBars     int `envconfig:"HISTORY_BARS" default:"300" validate:"gt=0"`
	BacktestWorkers int `envconfig:"BACKTEST_WORKERS" default:"1" validate:"gte=1,lte=64"`

	PriceSources   []string      `envconfig:"PRICE_SOURCES" default:"dummy" validate:"min=1,dive,oneof=dummy file twelvedata"`
	PricesFile     string        `envconfig:"PRICES_FILE"`
	TwelveAPIKey   string        `envconfig:"TWELVE_API_KEY"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	RequestsPerSec int           `envconfig:"REQUESTS_PER_SEC" default:"5" validate:"gt=0"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"`
	OutputFormat string `envconfig:"OUTPUT_FORMAT" default:"text" validate:"oneof=text json yaml"`
	MetricsAddr  string `envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// Load initializes configuration from the environment, reading .env first
// when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and source requirements. Call it again
// after applying command line overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if slices.Contains(c.PriceSources, SourceFile) && c.PricesFile == "" {
		return fmt.Errorf("config validation failed: PRICES_FILE is required for the %q source", SourceFile)
	}
	if slices.Contains(c.PriceSources, SourceTwelveData) && c.TwelveAPIKey == "" {
		return fmt.Errorf("config validation failed: TWELVE_API_KEY is required for the %q source", SourceTwelveData)
	}
	return nil
}
