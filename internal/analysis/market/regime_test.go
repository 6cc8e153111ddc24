package market

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/lpintel/models"
)

func TestClassifyMarketState(t *testing.T) {
	tests := []struct {
		name       string
		trend      models.Trend
		label      models.VolatilityLabel
		state      models.MarketState
		confidence float64
	}{
		{"bullish calm", models.TrendBullish, models.VolatilityLow, models.StateTrendingCalm, 0.85},
		{"bearish calm", models.TrendBearish, models.VolatilityLow, models.StateTrendingCalm, 0.85},
		{"bullish medium", models.TrendBullish, models.VolatilityMedium, models.StateTrendingVolatile, 0.65},
		{"bearish high", models.TrendBearish, models.VolatilityHigh, models.StateTrendingVolatile, 0.65},
		{"neutral calm", models.TrendNeutral, models.VolatilityLow, models.StateRangeBoundCalm, 0.75},
		{"neutral medium", models.TrendNeutral, models.VolatilityMedium, models.StateChoppyUncertain, 0.40},
		{"neutral high", models.TrendNeutral, models.VolatilityHigh, models.StateChoppyUncertain, 0.40},
		{"unknown trend", models.Trend("sideways"), models.VolatilityLow, models.StateChoppyUncertain, 0.40},
		{"unknown label", models.TrendBullish, models.VolatilityLabel("extreme"), models.StateChoppyUncertain, 0.40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyMarketState(&models.IndicatorSummary{
				Trend:           tt.trend,
				Volatility:      0.3,
				VolatilityLabel: tt.label,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.state, got.MarketState)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, Explanations[tt.state], got.Explanation)
		})
	}
}

func TestClassifyMarketState_Deterministic(t *testing.T) {
	in := &models.IndicatorSummary{Trend: models.TrendBearish, Volatility: 3, VolatilityLabel: models.VolatilityHigh}
	first, err := ClassifyMarketState(in)
	require.NoError(t, err)
	for range 10 {
		again, err := ClassifyMarketState(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassifyMarketState_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		in    *models.IndicatorSummary
		field string
	}{
		{"nil summary", nil, "technical_analysis"},
		{"no trend", &models.IndicatorSummary{VolatilityLabel: models.VolatilityLow}, "trend"},
		{"no label", &models.IndicatorSummary{Trend: models.TrendBullish}, "volatility_label"},
		{"nan volatility", &models.IndicatorSummary{Trend: models.TrendBullish, Volatility: math.NaN(), VolatilityLabel: models.VolatilityLow}, "volatility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyMarketState(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))

			var fe *models.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestTablesCoverEveryState(t *testing.T) {
	for _, rule := range Rules {
		_, ok := Confidence[rule.State]
		assert.True(t, ok, "confidence missing for %s", rule.State)
		_, ok = Explanations[rule.State]
		assert.True(t, ok, "explanation missing for %s", rule.State)
	}
}
