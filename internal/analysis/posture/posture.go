package posture

import "github.com/Alias1177/lpintel/models"

// Input is the posture lookup key. State is the uppercased market state name;
// a zero Confidence stands in for an absent one.
type Input struct {
	State      string
	Confidence float64
}

// Rule is one posture mapping row
type Rule struct {
	Posture     models.Posture
	Explanation string
}

// Table maps known state keys to a posture
var Table = map[string]Rule{
	"TRENDING_BULLISH": {
		Posture: models.PostureAggressive,
		Explanation: "Market is trending bullish with directional clarity. " +
			"More aggressive liquidity positioning may be acceptable.",
	},
	"TRENDING_BEARISH": {
		Posture: models.PostureDefensive,
		Explanation: "Market is trending bearish. Downside risk is elevated, " +
			"defensive liquidity behavior is recommended.",
	},
	"RANGING_LOW_VOLATILITY": {
		Posture: models.PostureNeutral,
		Explanation: "Market is range-bound with low volatility. " +
			"Neutral liquidity positioning is appropriate.",
	},
	"RANGING_HIGH_VOLATILITY": {
		Posture: models.PostureDefensive,
		Explanation: "Market is choppy with high volatility. " +
			"Wide or cautious liquidity behavior is recommended.",
	},
}

// Fallback applies to every state not in Table
var Fallback = Rule{
	Posture: models.PostureDefensive,
	Explanation: "Market state is unclear or low confidence. " +
		"Defaulting to defensive behavior.",
}

// DeterminePosture maps a state key to a posture. It never fails.
func DeterminePosture(in Input) models.StrategyPosture {
	r, ok := Table[in.State]
	if !ok {
		r = Fallback
	}
	return models.StrategyPosture{
		Posture:     r.Posture,
		Confidence:  in.Confidence,
		Explanation: r.Explanation,
	}
}
