package models

import (
	"context"
	"errors"
	"time"
)

// ErrPriceNotFound is returned by a PriceSource that has no data for a symbol
var ErrPriceNotFound = errors.New("price not found")

// PriceSource is a pluggable provider of current and historical prices.
// Only the pricefeed coordinator calls HealthCheck.
type PriceSource interface {
	Name() string
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	HistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Candle, error)
	HealthCheck(ctx context.Context) bool
}
