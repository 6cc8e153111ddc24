package pricefeed

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Alias1177/lpintel/models"
)

// BreakerSettings controls when a wrapped source is taken out of rotation.
// ConsecutiveFailures trips the breaker; OpenTimeout is how long it stays
// open before probing again.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultBreakerSettings trips after 3 failures and probes again after 30s
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: 30 * time.Second}
}

// BreakerSource wraps a PriceSource with a circuit breaker. Transport
// failures count against the breaker; "not found" answers do not.
type BreakerSource struct {
	src models.PriceSource
	cb  *gobreaker.CircuitBreaker
}

// WithBreaker wraps src
func WithBreaker(src models.PriceSource, s BreakerSettings) *BreakerSource {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	failures := s.ConsecutiveFailures

	return &BreakerSource{
		src: src,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    src.Name(),
			Timeout: s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, models.ErrPriceNotFound)
			},
		}),
	}
}

// Name returns the wrapped source name
func (b *BreakerSource) Name() string {
	return b.src.Name()
}

// State exposes the breaker state
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

// CurrentPrice forwards through the breaker
func (b *BreakerSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.src.CurrentPrice(ctx, symbol)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// HistoricalPrices forwards through the breaker
func (b *BreakerSource) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.src.HistoricalPrices(ctx, symbol, start, end, interval)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Candle), nil
}

// HealthCheck is false while the breaker is open
func (b *BreakerSource) HealthCheck(ctx context.Context) bool {
	if b.cb.State() == gobreaker.StateOpen {
		return false
	}
	return b.src.HealthCheck(ctx)
}
