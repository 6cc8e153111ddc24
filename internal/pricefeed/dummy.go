package pricefeed

import (
	"context"
	"strings"
	"time"

	"github.com/Alias1177/lpintel/models"
)

const (
	dummySymbol       = "SOL-USDC"
	dummyCurrentPrice = 150.0
	dummyStartPrice   = 140.0
	dummyPriceStep    = 0.5
)

// DummySource serves deterministic SOL-USDC data without network access
type DummySource struct{}

// NewDummySource creates a DummySource
func NewDummySource() *DummySource {
	return &DummySource{}
}

// Name returns the source name
func (d *DummySource) Name() string {
	return "DummyPriceSource"
}

// CurrentPrice returns a fixed price for SOL-USDC
func (d *DummySource) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	if !strings.EqualFold(symbol, dummySymbol) {
		return 0, models.ErrPriceNotFound
	}
	return dummyCurrentPrice, nil
}

// HistoricalPrices returns hourly candles from start to end inclusive,
// whatever interval is asked for. Open starts at 140 and rises 0.5 per bar.
func (d *DummySource) HistoricalPrices(_ context.Context, symbol string, start, end time.Time, _ string) ([]models.Candle, error) {
	if !strings.EqualFold(symbol, dummySymbol) {
		return nil, nil
	}

	var candles []models.Candle
	price := dummyStartPrice
	for ts := start; !ts.After(end); ts = ts.Add(time.Hour) {
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      price,
			High:      price + 2.0,
			Low:       price - 2.0,
			Close:     price + 1.0,
		})
		price += dummyPriceStep
	}
	return candles, nil
}

// HealthCheck always succeeds
func (d *DummySource) HealthCheck(_ context.Context) bool {
	return true
}
