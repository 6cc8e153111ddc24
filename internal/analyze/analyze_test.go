package analyze

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/lpintel/internal/analysis/market"
	"github.com/Alias1177/lpintel/internal/analysis/posture"
	"github.com/Alias1177/lpintel/internal/metrics"
	"github.com/Alias1177/lpintel/models"
)

func generatePrices(start, step float64, count int) []float64 {
	prices := make([]float64, count)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return prices
}

func newTestOrchestrator(m *metrics.Metrics) *Orchestrator {
	return NewOrchestrator(WithLogger(zerolog.Nop()), WithMetrics(m))
}

func TestGenerateReport_FullReport(t *testing.T) {
	o := newTestOrchestrator(nil)

	report, err := o.GenerateReport(Request{
		CurrentPrice:     100.0,
		HistoricalPrices: generatePrices(50.0, 0.2, 250),
		CapitalUSD:       10000,
		Leverage:         2.0,
		Direction:        models.DirectionLong,
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.PriceContext.CurrentPrice)
	assert.Equal(t, models.TrendBullish, report.TechnicalAnalysis.Trend)
	// step 0.2: stdev of last 20 ~ 1.18
	assert.Equal(t, models.VolatilityMedium, report.TechnicalAnalysis.VolatilityLabel)
	assert.Equal(t, models.StateTrendingVolatile, report.MarketState.MarketState)
	assert.Equal(t, 0.65, report.MarketState.Confidence)

	// "TRENDING_VOLATILE" is not a posture table key
	assert.Equal(t, models.PostureDefensive, report.StrategyPosture.Posture)
	assert.Equal(t, posture.Fallback.Explanation, report.StrategyPosture.Explanation)
	assert.Equal(t, 0.65, report.StrategyPosture.Confidence)

	// defensive 14% * medium 1.5 = 21%
	assert.Equal(t, 21.0, report.LiquidityRange.RangeWidthPct)
	assert.Equal(t, 79.0, report.LiquidityRange.LowerBound)
	assert.Equal(t, 112.6, report.LiquidityRange.UpperBound)

	// 50/2*0.65 = 16.25
	assert.Equal(t, 16.25, report.RiskAssessment.MaxAdverseMovePct)
	assert.Equal(t, models.RiskMedium, report.RiskAssessment.RiskLevel)
	assert.Equal(t, 83.75, report.RiskAssessment.LiquidationFloorPrice)
}

func TestGenerateReport_StateTextMatchesClassifier(t *testing.T) {
	o := newTestOrchestrator(nil)
	report, err := o.GenerateReport(Request{
		CurrentPrice:     100,
		HistoricalPrices: generatePrices(100, 0, 220),
		CapitalUSD:       1,
		Leverage:         3,
		Direction:        models.DirectionShort,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateRangeBoundCalm, report.MarketState.MarketState)
	assert.Equal(t, market.Explanations[models.StateRangeBoundCalm], report.MarketState.Explanation)
	assert.Greater(t, report.RiskAssessment.LiquidationFloorPrice, 100.0)
}

func TestGenerateReport_PropagatesStageErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		kind  error
		field string
		stage string
	}{
		{
			name:  "short history",
			req:   Request{CurrentPrice: 100, HistoricalPrices: generatePrices(1, 1, 150), CapitalUSD: 1, Leverage: 2, Direction: models.DirectionLong},
			kind:  models.ErrInsufficientData,
			stage: metrics.StageTechnicalAnalysis,
		},
		{
			name:  "bad price fails range first",
			req:   Request{CurrentPrice: -5, HistoricalPrices: generatePrices(1, 1, 220), CapitalUSD: 1, Leverage: 2, Direction: models.DirectionLong},
			kind:  models.ErrInvalidInput,
			field: "current_price",
			stage: metrics.StageLiquidityRange,
		},
		{
			name:  "neutral direction rejected by risk",
			req:   Request{CurrentPrice: 100, HistoricalPrices: generatePrices(1, 1, 220), CapitalUSD: 1, Leverage: 2, Direction: models.DirectionNeutral},
			kind:  models.ErrInvalidInput,
			field: "direction",
			stage: metrics.StageRiskAssessment,
		},
		{
			name:  "leverage of one",
			req:   Request{CurrentPrice: 100, HistoricalPrices: generatePrices(1, 1, 220), CapitalUSD: 1, Leverage: 1, Direction: models.DirectionLong},
			kind:  models.ErrInvalidInput,
			field: "leverage",
			stage: metrics.StageRiskAssessment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			report, err := newTestOrchestrator(m).GenerateReport(tt.req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, tt.kind))
			if tt.field != "" {
				var fe *models.FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.field, fe.Field)
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues(tt.stage)))
			assert.Equal(t, 0.0, testutil.ToFloat64(m.Reports.WithLabelValues("ok")))
		})
	}
}

func TestGenerateReport_CountsSuccess(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	o := newTestOrchestrator(m)
	for range 3 {
		_, err := o.GenerateReport(Request{
			CurrentPrice:     150,
			HistoricalPrices: generatePrices(140, 0.5, 200),
			CapitalUSD:       1000,
			Leverage:         4,
			Direction:        models.DirectionLong,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Reports.WithLabelValues("ok")))
}
