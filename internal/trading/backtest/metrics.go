package backtest

import (
	"github.com/Alias1177/lpintel/internal/calculate"
	"github.com/Alias1177/lpintel/models"
)

// Analyze computes descriptive statistics over a backtest run.
// A posture change is counted whenever a step's posture differs from the
// previous step's.
func Analyze(result *models.BacktestResult) (*models.BacktestSummary, error) {
	if result.Len() == 0 {
		return nil, models.ErrEmptyInput
	}

	summary := &models.BacktestSummary{
		TotalSteps:              result.Len(),
		MarketStateDistribution: make(map[models.MarketState]int),
		PostureDistribution:     make(map[models.Posture]int),
		RiskLevelDistribution:   make(map[models.RiskLevel]int),
	}

	widths := make([]float64, 0, result.Len())
	var last models.Posture
	for i, step := range result.Steps {
		report := step.DecisionReport
		current := report.StrategyPosture.Posture

		summary.MarketStateDistribution[report.MarketState.MarketState]++
		summary.PostureDistribution[current]++
		summary.RiskLevelDistribution[report.RiskAssessment.RiskLevel]++
		widths = append(widths, report.LiquidityRange.RangeWidthPct)

		if i > 0 && current != last {
			summary.PostureChangeCount++
		}
		last = current
	}

	summary.AvgRangeWidthPct = calculate.Round(calculate.Average(widths), 2)
	return summary, nil
}
