package protocol

import (
	"github.com/Alias1177/lpintel/internal/calculate"
	"github.com/Alias1177/lpintel/models"
)

// Conservative DeFiTuna-style constraints
const (
	MinRangeWidthPct = 2.0
	SafetyBufferPct  = 5.0

	// Epsilon is the float tolerance on the minimum width check
	Epsilon = 1e-6
)

const (
	NoteInvalidBounds  = "Invalid price bounds (must be positive)"
	NoteTooNarrow      = "Range too narrow for protocol safety"
	NoteLowerNearFloor = "Lower bound too close to liquidation floor"
	NoteUpperNearFloor = "Upper bound too close to liquidation floor"
	NoteValid          = "Range valid under conservative DeFiTuna constraints"
)

// ValidatedRange is a range after protocol checks. On failure the bounds are
// the inputs, unrounded.
type ValidatedRange struct {
	LowerBound float64 `json:"lower_bound" yaml:"lower_bound"`
	UpperBound float64 `json:"upper_bound" yaml:"upper_bound"`
	IsValid    bool    `json:"is_valid" yaml:"is_valid"`
	Notes      string  `json:"notes" yaml:"notes"`
}

// Request carries a computed range and the risk floor it must respect
type Request struct {
	LowerBound       float64
	UpperBound       float64
	CurrentPrice     float64
	LiquidationFloor float64
	Direction        models.Direction
}

// FromReport builds a Request from a decision report
func FromReport(r *models.DecisionReport, direction models.Direction) Request {
	return Request{
		LowerBound:       r.LiquidityRange.LowerBound,
		UpperBound:       r.LiquidityRange.UpperBound,
		CurrentPrice:     r.PriceContext.CurrentPrice,
		LiquidationFloor: r.RiskAssessment.LiquidationFloorPrice,
		Direction:        direction,
	}
}

// Adapter applies protocol constraints after the decision pipeline.
// It is stateless.
type Adapter struct{}

// NewAdapter creates an Adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// ValidateRange runs the checks in order and stops at the first failure.
// The floor buffer only applies to LONG and SHORT positions.
func (a *Adapter) ValidateRange(req Request) ValidatedRange {
	if req.LowerBound <= 0 || req.UpperBound <= 0 {
		return rejected(req, NoteInvalidBounds)
	}

	widthPct := (req.UpperBound - req.LowerBound) / req.CurrentPrice * 100
	if widthPct <= MinRangeWidthPct+Epsilon {
		return rejected(req, NoteTooNarrow)
	}

	switch req.Direction {
	case models.DirectionLong:
		if req.LowerBound <= req.LiquidationFloor*(1+SafetyBufferPct/100) {
			return rejected(req, NoteLowerNearFloor)
		}
	case models.DirectionShort:
		if req.UpperBound >= req.LiquidationFloor*(1-SafetyBufferPct/100) {
			return rejected(req, NoteUpperNearFloor)
		}
	}

	return ValidatedRange{
		LowerBound: calculate.Round(req.LowerBound, 4),
		UpperBound: calculate.Round(req.UpperBound, 4),
		IsValid:    true,
		Notes:      NoteValid,
	}
}

func rejected(req Request, note string) ValidatedRange {
	return ValidatedRange{
		LowerBound: req.LowerBound,
		UpperBound: req.UpperBound,
		Notes:      note,
	}
}
