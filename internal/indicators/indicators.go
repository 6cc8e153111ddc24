package indicators

import (
	"math"

	"github.com/Alias1177/lpintel/internal/calculate"
	"github.com/Alias1177/lpintel/models"
)

const (
	// MinHistory is the shortest price window the extractor accepts
	MinHistory = 200

	DefaultShortPeriod = 20
	DefaultLongPeriod  = 200

	// VolatilityWindow is the number of trailing closes used for volatility
	VolatilityWindow = 20
)

// Volatility label thresholds, in raw price units
const (
	lowVolatilityBelow    = 0.5
	mediumVolatilityBelow = 2.0
)

// Options configures the moving average periods
type Options struct {
	ShortPeriod int
	LongPeriod  int
}

// DefaultOptions returns the 20/200 moving average setup
func DefaultOptions() Options {
	return Options{ShortPeriod: DefaultShortPeriod, LongPeriod: DefaultLongPeriod}
}

func (o Options) withDefaults() Options {
	if o.ShortPeriod == 0 {
		o.ShortPeriod = DefaultShortPeriod
	}
	if o.LongPeriod == 0 {
		o.LongPeriod = DefaultLongPeriod
	}
	return o
}

// Extract computes the IndicatorSummary for an ordered close series.
// The slice is only read.
func Extract(prices []float64, opts Options) (*models.IndicatorSummary, error) {
	opts = opts.withDefaults()
	if opts.ShortPeriod < 0 {
		return nil, models.InvalidField("short_period", "must be positive")
	}
	if opts.LongPeriod < 0 {
		return nil, models.InvalidField("long_period", "must be positive")
	}

	need := max(MinHistory, opts.ShortPeriod, opts.LongPeriod)
	if len(prices) < need {
		return nil, models.InsufficientData("technical analysis", need, len(prices))
	}
	if !FiniteSeries(prices) {
		return nil, models.InvalidField("prices", "must all be finite")
	}

	maShort, err := calculate.SMA(prices, opts.ShortPeriod)
	if err != nil {
		return nil, err
	}
	maLong, err := calculate.SMA(prices, opts.LongPeriod)
	if err != nil {
		return nil, err
	}

	vol, err := calculate.TailStdDev(prices, VolatilityWindow)
	if err != nil {
		return nil, err
	}

	return &models.IndicatorSummary{
		MAShort:         maShort,
		MALong:          maLong,
		Trend:           TrendDirection(maShort, maLong),
		Volatility:      vol,
		VolatilityLabel: LabelVolatility(vol),
	}, nil
}

// TrendDirection compares the short MA against the long MA
func TrendDirection(maShort, maLong float64) models.Trend {
	switch {
	case maShort > maLong:
		return models.TrendBullish
	case maShort < maLong:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// LabelVolatility buckets a raw stdev. Thresholds are absolute price units,
// so series of different price scale are not comparable.
func LabelVolatility(vol float64) models.VolatilityLabel {
	switch {
	case vol < lowVolatilityBelow:
		return models.VolatilityLow
	case vol < mediumVolatilityBelow:
		return models.VolatilityMedium
	default:
		return models.VolatilityHigh
	}
}

// FiniteSeries reports whether every price is a finite number
func FiniteSeries(prices []float64) bool {
	for _, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}
