package models

import (
	"time"

	"github.com/google/uuid"
)

// Trend is the direction implied by the short/long moving average crossover
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// VolatilityLabel buckets raw volatility into low/medium/high
type VolatilityLabel string

const (
	VolatilityLow    VolatilityLabel = "low"
	VolatilityMedium VolatilityLabel = "medium"
	VolatilityHigh   VolatilityLabel = "high"
)

// Valid reports whether l is one of the known labels
func (l VolatilityLabel) Valid() bool {
	switch l {
	case VolatilityLow, VolatilityMedium, VolatilityHigh:
		return true
	}
	return false
}

// MarketState is the qualitative interpretation of an IndicatorSummary
type MarketState string

const (
	StateTrendingCalm     MarketState = "trending_calm"
	StateTrendingVolatile MarketState = "trending_volatile"
	StateRangeBoundCalm   MarketState = "range_bound_calm"
	StateChoppyUncertain  MarketState = "choppy_uncertain"
)

// Posture is how aggressive a liquidity provider should be
type Posture string

const (
	PostureAggressive Posture = "AGGRESSIVE"
	PostureNeutral    Posture = "NEUTRAL"
	PostureDefensive  Posture = "DEFENSIVE"
)

// Valid reports whether p is one of the known postures
func (p Posture) Valid() bool {
	switch p {
	case PostureAggressive, PostureNeutral, PostureDefensive:
		return true
	}
	return false
}

// Direction of the leveraged position
type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
)

// RiskLevel is the qualitative risk bucket of a RiskAssessment
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Candle represents a single price candle returned by a PriceSource
type Candle struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
}

// IndicatorSummary holds the technical analysis of a price window
type IndicatorSummary struct {
	MAShort         float64         `json:"ma_short" yaml:"ma_short"`
	MALong          float64         `json:"ma_long" yaml:"ma_long"`
	Trend           Trend           `json:"trend" yaml:"trend"`
	Volatility      float64         `json:"volatility" yaml:"volatility"` // sample stdev of the last 20 closes
	VolatilityLabel VolatilityLabel `json:"volatility_label" yaml:"volatility_label"`
}

// MarketStateSummary is the classified market state
type MarketStateSummary struct {
	MarketState MarketState `json:"market_state" yaml:"market_state"`
	Confidence  float64     `json:"confidence" yaml:"confidence"` // 0-1
	Explanation string      `json:"explanation" yaml:"explanation"`
}

// StrategyPosture is the behavioural posture derived from the market state
type StrategyPosture struct {
	Posture     Posture `json:"posture" yaml:"posture"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

// LiquidityRange is the conceptual price band for deploying liquidity
type LiquidityRange struct {
	LowerBound    float64 `json:"lower_bound" yaml:"lower_bound"`
	UpperBound    float64 `json:"upper_bound" yaml:"upper_bound"`
	RangeWidthPct float64 `json:"range_width_pct" yaml:"range_width_pct"`
	RiskNote      string  `json:"risk_note" yaml:"risk_note"`
}

// RiskAssessment bounds a position against a conservative liquidation floor
type RiskAssessment struct {
	LiquidationFloorPrice float64   `json:"liquidation_floor_price" yaml:"liquidation_floor_price"`
	MaxAdverseMovePct     float64   `json:"max_adverse_move_pct" yaml:"max_adverse_move_pct"`
	RiskLevel             RiskLevel `json:"risk_level" yaml:"risk_level"`
	Explanation           string    `json:"explanation" yaml:"explanation"`
}

// PriceContext is the snapshot a DecisionReport was computed for
type PriceContext struct {
	CurrentPrice float64 `json:"current_price" yaml:"current_price"`
}

// DecisionReport is the full explainable output for one price snapshot
type DecisionReport struct {
	PriceContext      PriceContext       `json:"price_context" yaml:"price_context"`
	TechnicalAnalysis IndicatorSummary   `json:"technical_analysis" yaml:"technical_analysis"`
	MarketState       MarketStateSummary `json:"market_state" yaml:"market_state"`
	StrategyPosture   StrategyPosture    `json:"strategy_posture" yaml:"strategy_posture"`
	LiquidityRange    LiquidityRange     `json:"liquidity_range" yaml:"liquidity_range"`
	RiskAssessment    RiskAssessment     `json:"risk_assessment" yaml:"risk_assessment"`
}

// BacktestStepResult is the report captured at one replayed index
type BacktestStepResult struct {
	Index          int            `json:"index" yaml:"index"`
	Price          float64        `json:"price" yaml:"price"`
	DecisionReport DecisionReport `json:"decision_report" yaml:"decision_report"`
}

// BacktestResult stores one backtest run, steps ordered by index
type BacktestResult struct {
	RunID        uuid.UUID            `json:"run_id" yaml:"run_id"`
	WarmupPeriod int                  `json:"warmup_period" yaml:"warmup_period"`
	Direction    Direction            `json:"direction" yaml:"direction"`
	Leverage     float64              `json:"leverage" yaml:"leverage"`
	CapitalUSD   float64              `json:"capital_usd" yaml:"capital_usd"`
	Steps        []BacktestStepResult `json:"steps" yaml:"steps"`
}

// Len returns the number of recorded steps
func (r *BacktestResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}

// BacktestSummary holds descriptive statistics over a BacktestResult
type BacktestSummary struct {
	TotalSteps              int                 `json:"total_steps" yaml:"total_steps"`
	MarketStateDistribution map[MarketState]int `json:"market_state_distribution" yaml:"market_state_distribution"`
	PostureDistribution     map[Posture]int     `json:"posture_distribution" yaml:"posture_distribution"`
	RiskLevelDistribution   map[RiskLevel]int   `json:"risk_level_distribution" yaml:"risk_level_distribution"`
	PostureChangeCount      int                 `json:"posture_change_count" yaml:"posture_change_count"`
	AvgRangeWidthPct        float64             `json:"avg_range_width_pct" yaml:"avg_range_width_pct"`
}
