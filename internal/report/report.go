package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/lpintel/internal/protocol"
	"github.com/Alias1177/lpintel/models"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Decision is a decision report with its protocol check, as printed by the CLI
type Decision struct {
	Symbol    string                   `json:"symbol" yaml:"symbol"`
	Direction models.Direction         `json:"direction" yaml:"direction"`
	Report    *models.DecisionReport   `json:"report" yaml:"report"`
	Protocol  *protocol.ValidatedRange `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// Backtest is a backtest run summary, as printed by the CLI
type Backtest struct {
	Symbol       string                  `json:"symbol" yaml:"symbol"`
	RunID        uuid.UUID               `json:"run_id" yaml:"run_id"`
	WarmupPeriod int                     `json:"warmup_period" yaml:"warmup_period"`
	Direction    models.Direction        `json:"direction" yaml:"direction"`
	Leverage     float64                 `json:"leverage" yaml:"leverage"`
	Summary      *models.BacktestSummary `json:"summary" yaml:"summary"`
}

// NewBacktest pairs run metadata with its summary
func NewBacktest(symbol string, result *models.BacktestResult, summary *models.BacktestSummary) *Backtest {
	return &Backtest{
		Symbol:       symbol,
		RunID:        result.RunID,
		WarmupPeriod: result.WarmupPeriod,
		Direction:    result.Direction,
		Leverage:     result.Leverage,
		Summary:      summary,
	}
}

// WriteDecision renders d in format
func WriteDecision(w io.Writer, format string, d *Decision) error {
	if format == FormatText {
		_, err := io.WriteString(w, formatDecision(d))
		return err
	}
	return encode(w, format, d)
}

// WriteBacktest renders b in format
func WriteBacktest(w io.Writer, format string, b *Backtest) error {
	if format == FormatText {
		_, err := io.WriteString(w, formatBacktest(b))
		return err
	}
	return encode(w, format, b)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func formatDecision(d *Decision) string {
	r := d.Report
	var b strings.Builder

	b.WriteString("\n===== LP DECISION REPORT =====\n")
	fmt.Fprintf(&b, "Symbol: %s | Direction: %s\n", d.Symbol, d.Direction)
	fmt.Fprintf(&b, "Current Price: %.4f\n", r.PriceContext.CurrentPrice)

	ta := r.TechnicalAnalysis
	b.WriteString("\nTechnical Analysis:\n")
	fmt.Fprintf(&b, "MA short: %.4f | MA long: %.4f | Trend: %s\n", ta.MAShort, ta.MALong, ta.Trend)
	fmt.Fprintf(&b, "Volatility: %.4f (%s)\n", ta.Volatility, ta.VolatilityLabel)

	fmt.Fprintf(&b, "\nMarket State: %s (Confidence: %.2f)\n", r.MarketState.MarketState, r.MarketState.Confidence)
	fmt.Fprintf(&b, "%s\n", r.MarketState.Explanation)

	fmt.Fprintf(&b, "\nStrategy Posture: %s\n", r.StrategyPosture.Posture)
	fmt.Fprintf(&b, "%s\n", r.StrategyPosture.Explanation)

	lr := r.LiquidityRange
	fmt.Fprintf(&b, "\nLiquidity Range: %.4f - %.4f (Width: %.2f%%)\n", lr.LowerBound, lr.UpperBound, lr.RangeWidthPct)
	fmt.Fprintf(&b, "Note: %s\n", lr.RiskNote)

	ra := r.RiskAssessment
	fmt.Fprintf(&b, "\nRisk Level: %s | Liquidation Floor: %.4f | Max Adverse Move: %.2f%%\n",
		ra.RiskLevel, ra.LiquidationFloorPrice, ra.MaxAdverseMovePct)
	fmt.Fprintf(&b, "%s\n", ra.Explanation)

	if d.Protocol != nil {
		status := "REJECTED"
		if d.Protocol.IsValid {
			status = "VALID"
		}
		fmt.Fprintf(&b, "\nProtocol Check: %s (%.4f - %.4f)\n", status, d.Protocol.LowerBound, d.Protocol.UpperBound)
		fmt.Fprintf(&b, "%s\n", d.Protocol.Notes)
	}

	return b.String()
}

func formatBacktest(bt *Backtest) string {
	s := bt.Summary
	var b strings.Builder

	b.WriteString("\n===== BACKTEST SUMMARY =====\n")
	fmt.Fprintf(&b, "Run: %s\n", bt.RunID)
	fmt.Fprintf(&b, "Symbol: %s | Direction: %s | Leverage: %gx | Warmup: %d\n",
		bt.Symbol, bt.Direction, bt.Leverage, bt.WarmupPeriod)
	fmt.Fprintf(&b, "Total steps: %d\n", s.TotalSteps)
	fmt.Fprintf(&b, "Posture changes: %d\n", s.PostureChangeCount)
	fmt.Fprintf(&b, "Average range width: %.2f%%\n", s.AvgRangeWidthPct)

	writeDistribution(&b, "Market states", s.MarketStateDistribution, s.TotalSteps)
	writeDistribution(&b, "Postures", s.PostureDistribution, s.TotalSteps)
	writeDistribution(&b, "Risk levels", s.RiskLevelDistribution, s.TotalSteps)

	return b.String()
}

func writeDistribution[K ~string](b *strings.Builder, title string, dist map[K]int, total int) {
	keys := make([]K, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d (%.2f%%)\n", k, dist[k], float64(dist[k])/float64(total)*100)
	}
}
