package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/lpintel/internal/analyze"
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

// failingReporter fails for the configured window lengths
type failingReporter struct {
	mu     sync.Mutex
	failAt map[int]bool
	calls  int
}

func (f *failingReporter) GenerateReport(req analyze.Request) (*models.DecisionReport, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failAt[len(req.HistoricalPrices)-1] {
		return nil, models.InvalidField("leverage", "forced failure")
	}
	return &models.DecisionReport{PriceContext: models.PriceContext{CurrentPrice: req.CurrentPrice}}, nil
}

func TestRunner_GeneratesResults(t *testing.T) {
	prices := generatePrices(50.0, 0.1, 300)
	rn := NewRunner(WithLogger(zerolog.Nop()))

	result, err := rn.Run(context.Background(), Params{
		HistoricalPrices: prices,
		CapitalUSD:       10000,
		Leverage:         2.0,
		Direction:        models.DirectionLong,
	})
	require.NoError(t, err)

	require.Equal(t, 100, result.Len())
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, DefaultWarmupPeriod, result.WarmupPeriod)
	assert.Equal(t, models.DirectionLong, result.Direction)

	for k, step := range result.Steps {
		assert.Equal(t, DefaultWarmupPeriod+k, step.Index)
		assert.Equal(t, prices[step.Index], step.Price)
		assert.Equal(t, step.Price, step.DecisionReport.PriceContext.CurrentPrice)
	}

	first := result.Steps[0].DecisionReport
	assert.NotEmpty(t, first.TechnicalAnalysis.Trend)
	assert.NotEmpty(t, first.MarketState.MarketState)
	assert.NotEmpty(t, first.StrategyPosture.Posture)
	assert.Greater(t, first.LiquidityRange.UpperBound, first.LiquidityRange.LowerBound)
	assert.NotEmpty(t, first.RiskAssessment.RiskLevel)
}

func TestRunner_WindowIsPrefix(t *testing.T) {
	prices := generatePrices(10, 1, 210)
	var seen []int
	rn := NewRunner(WithLogger(zerolog.Nop()), WithReporter(reporterFunc(func(req analyze.Request) (*models.DecisionReport, error) {
		seen = append(seen, len(req.HistoricalPrices))
		assert.Equal(t, req.HistoricalPrices[len(req.HistoricalPrices)-1], req.CurrentPrice)
		return &models.DecisionReport{}, nil
	})))

	result, err := rn.Run(context.Background(), Params{HistoricalPrices: prices, WarmupPeriod: 205, Leverage: 2, CapitalUSD: 1, Direction: models.DirectionShort})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Len())
	assert.Equal(t, []int{206, 207, 208, 209, 210}, seen)
}

type reporterFunc func(req analyze.Request) (*models.DecisionReport, error)

func (f reporterFunc) GenerateReport(req analyze.Request) (*models.DecisionReport, error) {
	return f(req)
}

func TestRunner_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		warmup int
	}{
		{"equal to default warmup", 200, 0},
		{"shorter than warmup", 50, 100},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rn := NewRunner(WithLogger(zerolog.Nop()))
			result, err := rn.Run(context.Background(), Params{
				HistoricalPrices: generatePrices(1, 1, tt.count),
				WarmupPeriod:     tt.warmup,
				CapitalUSD:       1,
				Leverage:         2,
				Direction:        models.DirectionLong,
			})
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, models.ErrInsufficientData))
		})
	}
}

func TestRunner_StepFailureAborts(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			fake := &failingReporter{failAt: map[int]bool{215: true, 207: true}}
			rn := NewRunner(WithLogger(zerolog.Nop()), WithReporter(fake), WithWorkers(workers))

			result, err := rn.Run(context.Background(), Params{
				HistoricalPrices: generatePrices(1, 1, 230),
				WarmupPeriod:     200,
				CapitalUSD:       1,
				Leverage:         2,
				Direction:        models.DirectionLong,
			})
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
			assert.Contains(t, err.Error(), "backtest step 207")
		})
	}
}

func TestRunner_ParallelMatchesSequential(t *testing.T) {
	params := Params{
		HistoricalPrices: generatePrices(80, 0.3, 260),
		CapitalUSD:       5000,
		Leverage:         3,
		Direction:        models.DirectionShort,
	}

	seq, err := NewRunner(WithLogger(zerolog.Nop())).Run(context.Background(), params)
	require.NoError(t, err)
	par, err := NewRunner(WithLogger(zerolog.Nop()), WithWorkers(8)).Run(context.Background(), params)
	require.NoError(t, err)

	assert.NotEqual(t, seq.RunID, par.RunID)
	assert.Equal(t, seq.Steps, par.Steps)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		rn := NewRunner(WithLogger(zerolog.Nop()), WithWorkers(workers), WithReporter(&failingReporter{}))
		_, err := rn.Run(ctx, Params{HistoricalPrices: generatePrices(1, 1, 210), Direction: models.DirectionLong})
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunner_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rn := NewRunner(WithLogger(zerolog.Nop()), WithMetrics(m))

	_, err := rn.Run(context.Background(), Params{
		HistoricalPrices: generatePrices(50, 0.1, 210),
		CapitalUSD:       1,
		Leverage:         2,
		Direction:        models.DirectionLong,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.BacktestSteps))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Reports.WithLabelValues("ok")))
}

func dummyStep(index int, p models.Posture, state models.MarketState, risk models.RiskLevel, width float64) models.BacktestStepResult {
	return models.BacktestStepResult{
		Index: index,
		Price: float64(100 + index),
		DecisionReport: models.DecisionReport{
			MarketState:     models.MarketStateSummary{MarketState: state},
			StrategyPosture: models.StrategyPosture{Posture: p},
			RiskAssessment:  models.RiskAssessment{RiskLevel: risk},
			LiquidityRange:  models.LiquidityRange{RangeWidthPct: width},
		},
	}
}

func TestAnalyze_OutputsMetrics(t *testing.T) {
	result := &models.BacktestResult{Steps: []models.BacktestStepResult{
		dummyStep(1, models.PostureNeutral, models.StateRangeBoundCalm, models.RiskLow, 10),
		dummyStep(2, models.PostureAggressive, models.StateTrendingCalm, models.RiskMedium, 6),
		dummyStep(3, models.PostureAggressive, models.StateTrendingCalm, models.RiskMedium, 6),
	}}

	summary, err := Analyze(result)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalSteps)
	assert.Equal(t, 1, summary.PostureChangeCount)
	assert.Equal(t, 2, summary.MarketStateDistribution[models.StateTrendingCalm])
	assert.Equal(t, 1, summary.MarketStateDistribution[models.StateRangeBoundCalm])
	assert.Equal(t, 2, summary.PostureDistribution[models.PostureAggressive])
	assert.Equal(t, 2, summary.RiskLevelDistribution[models.RiskMedium])
	assert.Equal(t, 7.33, summary.AvgRangeWidthPct)
}

func TestAnalyze_PostureChanges(t *testing.T) {
	tests := []struct {
		name     string
		postures []models.Posture
		want     int
	}{
		{"single step", []models.Posture{models.PostureDefensive}, 0},
		{"constant", []models.Posture{models.PostureNeutral, models.PostureNeutral, models.PostureNeutral}, 0},
		{"alternating", []models.Posture{models.PostureNeutral, models.PostureDefensive, models.PostureNeutral, models.PostureDefensive}, 3},
		{"return to start", []models.Posture{models.PostureAggressive, models.PostureNeutral, models.PostureNeutral, models.PostureAggressive}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &models.BacktestResult{}
			for i, p := range tt.postures {
				result.Steps = append(result.Steps, dummyStep(i, p, models.StateChoppyUncertain, models.RiskHigh, 4))
			}
			summary, err := Analyze(result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary.PostureChangeCount)
			assert.Equal(t, 4.0, summary.AvgRangeWidthPct)
			assert.Equal(t, len(tt.postures), summary.TotalSteps)
		})
	}
}

func TestAnalyze_Empty(t *testing.T) {
	_, err := Analyze(&models.BacktestResult{})
	assert.ErrorIs(t, err, models.ErrEmptyInput)

	_, err = Analyze(nil)
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestAnalyze_RunnerOutput(t *testing.T) {
	result, err := NewRunner(WithLogger(zerolog.Nop())).Run(context.Background(), Params{
		HistoricalPrices: generatePrices(100, 0, 230),
		CapitalUSD:       1,
		Leverage:         2,
		Direction:        models.DirectionLong,
	})
	require.NoError(t, err)

	summary, err := Analyze(result)
	require.NoError(t, err)
	// flat prices: range-bound calm, which falls back to defensive
	assert.Equal(t, 30, summary.MarketStateDistribution[models.StateRangeBoundCalm])
	assert.Equal(t, 30, summary.PostureDistribution[models.PostureDefensive])
	assert.Equal(t, 0, summary.PostureChangeCount)
	assert.Equal(t, 14.0, summary.AvgRangeWidthPct)
}
