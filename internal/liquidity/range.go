package liquidity

import (
	"math"

	"github.com/Alias1177/lpintel/internal/calculate"
	"github.com/Alias1177/lpintel/models"
)

// BaseWidthPct is the range width before volatility adjustment
var BaseWidthPct = map[models.Posture]float64{
	models.PostureAggressive: 4.0,
	models.PostureNeutral:    8.0,
	models.PostureDefensive:  14.0,
}

// VolatilityMultiplier widens the range as volatility rises
var VolatilityMultiplier = map[models.VolatilityLabel]float64{
	models.VolatilityLow:    1.0,
	models.VolatilityMedium: 1.5,
	models.VolatilityHigh:   2.0,
}

// Skew is the share of half_range placed below and above the current price
type Skew struct {
	Below float64
	Above float64
}

// DirectionSkew shapes the range by position direction
var DirectionSkew = map[models.Direction]Skew{
	models.DirectionLong:    {Below: 1.0, Above: 0.6},
	models.DirectionShort:   {Below: 0.6, Above: 1.0},
	models.DirectionNeutral: {Below: 1.0, Above: 1.0},
}

const (
	boundPlaces = 4
	widthPlaces = 2

	lowConfidenceBelow = 0.6
)

const (
	NoteBreachRisk    = "Aggressive posture with low confidence increases range breach risk."
	NoteDefensiveHigh = "Defensive posture recommended due to high volatility environment."
	NoteGeneric       = "Range reflects current market posture and volatility."
)

// Input holds the range calculation parameters
type Input struct {
	CurrentPrice    float64
	Direction       models.Direction
	VolatilityLabel models.VolatilityLabel
	Posture         models.Posture
	Confidence      float64
}

// ComputeRange turns a posture into a concrete price band. Bounds are
// rounded to 4 places and the width to 2; downstream validation re-derives
// width from the rounded bounds.
func ComputeRange(in Input) (*models.LiquidityRange, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	widthPct := BaseWidthPct[in.Posture] * VolatilityMultiplier[in.VolatilityLabel]
	halfRange := in.CurrentPrice * widthPct / 100

	skew := DirectionSkew[in.Direction]
	lower := in.CurrentPrice - halfRange*skew.Below
	upper := in.CurrentPrice + halfRange*skew.Above

	return &models.LiquidityRange{
		LowerBound:    calculate.Round(lower, boundPlaces),
		UpperBound:    calculate.Round(upper, boundPlaces),
		RangeWidthPct: calculate.Round(widthPct, widthPlaces),
		RiskNote:      riskNote(in.Posture, in.VolatilityLabel, in.Confidence),
	}, nil
}

func riskNote(p models.Posture, label models.VolatilityLabel, confidence float64) string {
	if p == models.PostureAggressive && confidence < lowConfidenceBelow {
		return NoteBreachRisk
	}
	if p == models.PostureDefensive && label == models.VolatilityHigh {
		return NoteDefensiveHigh
	}
	return NoteGeneric
}

func validate(in Input) error {
	if !(in.CurrentPrice > 0) || math.IsInf(in.CurrentPrice, 0) {
		return models.InvalidField("current_price", "must be positive")
	}
	if _, ok := DirectionSkew[in.Direction]; !ok {
		return models.InvalidField("direction", "must be LONG, SHORT or NEUTRAL")
	}
	if !in.VolatilityLabel.Valid() {
		return models.InvalidField("volatility_label", "must be low, medium or high")
	}
	if !in.Posture.Valid() {
		return models.InvalidField("posture", "must be AGGRESSIVE, NEUTRAL or DEFENSIVE")
	}
	if !(in.Confidence >= 0 && in.Confidence <= 1) {
		return models.InvalidField("confidence", "must be between 0 and 1")
	}
	return nil
}
