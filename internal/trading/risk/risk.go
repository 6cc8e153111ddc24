package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Alias1177/lpintel/internal/calculate"
	"github.com/Alias1177/lpintel/models"
)

const (
	// adverseBudgetPct is the unlevered adverse move budget
	adverseBudgetPct = 50.0

	highRiskBelowPct   = 10.0
	mediumRiskBelowPct = 20.0
)

// Input holds the risk assessment parameters. CapitalUSD is validated but
// does not enter the floor formula.
type Input struct {
	CurrentPrice float64
	CapitalUSD   float64
	Leverage     float64
	Direction    models.Direction
	Confidence   float64
}

// AssessRisk computes a conservative liquidation floor. The allowed adverse
// move is 50/leverage percent scaled down by confidence; it is not an
// estimate of the true protocol liquidation distance.
func AssessRisk(in Input) (*models.RiskAssessment, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	adjustedPct := adverseBudgetPct / in.Leverage * in.Confidence
	adverseMove := in.CurrentPrice * adjustedPct / 100

	floor := in.CurrentPrice - adverseMove
	if in.Direction == models.DirectionShort {
		floor = in.CurrentPrice + adverseMove
	}

	return &models.RiskAssessment{
		LiquidationFloorPrice: calculate.Round(floor, 4),
		MaxAdverseMovePct:     calculate.Round(adjustedPct, 2),
		RiskLevel:             Level(adjustedPct),
		Explanation: fmt.Sprintf(
			"With %sx leverage and confidence %.2f, the system allows a maximum adverse move of %.2f%% before risk becomes unacceptable.",
			strconv.FormatFloat(in.Leverage, 'f', -1, 64), in.Confidence, adjustedPct,
		),
	}, nil
}

// Level buckets an adverse move percentage
func Level(adversePct float64) models.RiskLevel {
	switch {
	case adversePct < highRiskBelowPct:
		return models.RiskHigh
	case adversePct < mediumRiskBelowPct:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func validate(in Input) error {
	if !(in.CurrentPrice > 0) || math.IsInf(in.CurrentPrice, 0) {
		return models.InvalidField("current_price", "must be positive")
	}
	if !(in.CapitalUSD > 0) {
		return models.InvalidField("capital_usd", "must be positive")
	}
	if !(in.Leverage > 1) || math.IsInf(in.Leverage, 0) {
		return models.InvalidField("leverage", "must be greater than 1")
	}
	if in.Direction != models.DirectionLong && in.Direction != models.DirectionShort {
		return models.InvalidField("direction", "must be LONG or SHORT")
	}
	if !(in.Confidence >= 0 && in.Confidence <= 1) {
		return models.InvalidField("confidence", "must be between 0 and 1")
	}
	return nil
}
