package market

import (
	"math"

	"github.com/Alias1177/lpintel/models"
)

// Rule is one row of the state table; empty Trends or Labels
// match anything.
type Rule struct {
	Trends []models.Trend
	Labels []models.VolatilityLabel
	State  models.MarketState
}

// Rules is evaluated top to bottom, first match wins
var Rules = []Rule{
	{
		Trends: []models.Trend{models.TrendBullish, models.TrendBearish},
		Labels: []models.VolatilityLabel{models.VolatilityLow},
		State:  models.StateTrendingCalm,
	},
	{
		Trends: []models.Trend{models.TrendBullish, models.TrendBearish},
		Labels: []models.VolatilityLabel{models.VolatilityMedium, models.VolatilityHigh},
		State:  models.StateTrendingVolatile,
	},
	{
		Trends: []models.Trend{models.TrendNeutral},
		Labels: []models.VolatilityLabel{models.VolatilityLow},
		State:  models.StateRangeBoundCalm,
	},
	{State: models.StateChoppyUncertain},
}

// Confidence is fixed per state
var Confidence = map[models.MarketState]float64{
	models.StateTrendingCalm:     0.85,
	models.StateTrendingVolatile: 0.65,
	models.StateRangeBoundCalm:   0.75,
	models.StateChoppyUncertain:  0.40,
}

// Explanations is the human-readable text per state
var Explanations = map[models.MarketState]string{
	models.StateTrendingCalm: "The market is trending with low volatility. " +
		"Price direction is clear and movements are controlled.",
	models.StateTrendingVolatile: "The market shows a clear trend but with elevated volatility. " +
		"Direction exists, but risk is higher due to large swings.",
	models.StateRangeBoundCalm: "The market is moving sideways with low volatility. " +
		"No strong directional bias is present.",
	models.StateChoppyUncertain: "Market signals are mixed or unstable. " +
		"Direction is unclear and conditions are unpredictable.",
}

// ClassifyMarketState maps an IndicatorSummary to a market state.
// Trend, Volatility and VolatilityLabel are required; an empty string or a
// NaN volatility counts as absent.
func ClassifyMarketState(ta *models.IndicatorSummary) (*models.MarketStateSummary, error) {
	if ta == nil {
		return nil, models.InvalidField("technical_analysis", "is required")
	}
	if ta.Trend == "" {
		return nil, models.InvalidField("trend", "is required")
	}
	if math.IsNaN(ta.Volatility) {
		return nil, models.InvalidField("volatility", "is required")
	}
	if ta.VolatilityLabel == "" {
		return nil, models.InvalidField("volatility_label", "is required")
	}

	state := StateFor(ta.Trend, ta.VolatilityLabel)
	return &models.MarketStateSummary{
		MarketState: state,
		Confidence:  Confidence[state],
		Explanation: Explanations[state],
	}, nil
}

// StateFor looks up the state table
func StateFor(trend models.Trend, label models.VolatilityLabel) models.MarketState {
	for _, rule := range Rules {
		if matches(rule.Trends, trend) && matches(rule.Labels, label) {
			return rule.State
		}
	}
	return models.StateChoppyUncertain
}

func matches[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
