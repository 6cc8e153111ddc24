package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/lpintel/internal/metrics"
	"github.com/Alias1177/lpintel/models"
)

// Feed coordinates an ordered list of price sources. Each lookup skips
// unhealthy sources and returns the first usable answer.
type Feed struct {
	sources []models.PriceSource
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Option configures a Feed
type Option func(*Feed)

// WithMetrics records per-source outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Feed) { f.metrics = m }
}

// WithLogger replaces the component logger
func WithLogger(l zerolog.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

// NewFeed creates a Feed over sources, tried in the given order
func NewFeed(sources []models.PriceSource, opts ...Option) *Feed {
	f := &Feed{
		sources: sources,
		logger:  log.With().Str("component", "price_feed").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SourceStatus is the health of one configured source
type SourceStatus struct {
	Name    string
	Healthy bool
}

// Status checks every source, in lookup order
func (f *Feed) Status(ctx context.Context) []SourceStatus {
	out := make([]SourceStatus, len(f.sources))
	for i, src := range f.sources {
		out[i] = SourceStatus{Name: src.Name(), Healthy: src.HealthCheck(ctx)}
	}
	return out
}

// CurrentPrice returns the price from the first healthy source that has one
func (f *Feed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	for _, src := range f.sources {
		if !f.healthy(ctx, src) {
			continue
		}

		price, err := src.CurrentPrice(ctx, symbol)
		if err != nil {
			f.miss(src, symbol, err)
			continue
		}

		f.metrics.SourceRequest(src.Name(), metrics.SourceHit)
		return price, nil
	}
	return 0, fmt.Errorf("%w: no current price for %s", models.ErrAllSourcesFailed, symbol)
}

// HistoricalPrices returns candles from the first healthy source with a
// non-empty answer
func (f *Feed) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	for _, src := range f.sources {
		if !f.healthy(ctx, src) {
			continue
		}

		candles, err := src.HistoricalPrices(ctx, symbol, start, end, interval)
		if err != nil {
			f.miss(src, symbol, err)
			continue
		}
		if len(candles) == 0 {
			f.miss(src, symbol, models.ErrPriceNotFound)
			continue
		}

		f.metrics.SourceRequest(src.Name(), metrics.SourceHit)
		return candles, nil
	}
	return nil, fmt.Errorf("%w: no history for %s", models.ErrAllSourcesFailed, symbol)
}

// HealthCheck is true when at least one source is healthy
func (f *Feed) HealthCheck(ctx context.Context) bool {
	for _, src := range f.sources {
		if src.HealthCheck(ctx) {
			return true
		}
	}
	return false
}

func (f *Feed) healthy(ctx context.Context, src models.PriceSource) bool {
	if src.HealthCheck(ctx) {
		return true
	}
	f.metrics.SourceRequest(src.Name(), metrics.SourceUnhealthy)
	f.logger.Warn().Str("source", src.Name()).Msg("Skipping unhealthy price source")
	return false
}

func (f *Feed) miss(src models.PriceSource, symbol string, err error) {
	outcome := metrics.SourceError
	if errors.Is(err, models.ErrPriceNotFound) {
		outcome = metrics.SourceEmpty
	}
	f.metrics.SourceRequest(src.Name(), outcome)
	f.logger.Warn().
		Err(err).
		Str("source", src.Name()).
		Str("symbol", symbol).
		Msg("Price source returned nothing, trying next")
}

// Closes extracts the close series, preserving order
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
