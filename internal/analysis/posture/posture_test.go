package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/lpintel/models"
)

func TestDeterminePosture(t *testing.T) {
	tests := []struct {
		state string
		want  models.Posture
	}{
		{"TRENDING_BULLISH", models.PostureAggressive},
		{"TRENDING_BEARISH", models.PostureDefensive},
		{"RANGING_LOW_VOLATILITY", models.PostureNeutral},
		{"RANGING_HIGH_VOLATILITY", models.PostureDefensive},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := DeterminePosture(Input{State: tt.state, Confidence: 0.7})
			assert.Equal(t, tt.want, got.Posture)
			assert.Equal(t, 0.7, got.Confidence)
			assert.Equal(t, Table[tt.state].Explanation, got.Explanation)
		})
	}
}

func TestDeterminePosture_FallbackIsDefensive(t *testing.T) {
	for _, state := range []string{
		"",
		"UNKNOWN",
		"trending_bullish",
		"TRENDING_CALM",
		"TRENDING_VOLATILE",
		"RANGE_BOUND_CALM",
		"CHOPPY_UNCERTAIN",
		" TRENDING_BULLISH",
		"\x00",
	} {
		got := DeterminePosture(Input{State: state, Confidence: 0.9})
		assert.Equal(t, models.PostureDefensive, got.Posture, "state %q", state)
		assert.Equal(t, Fallback.Explanation, got.Explanation, "state %q", state)
	}
}

func TestDeterminePosture_AbsentConfidence(t *testing.T) {
	got := DeterminePosture(Input{State: "TRENDING_BULLISH"})
	assert.Equal(t, 0.0, got.Confidence)
}
