package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lpintel"

// Pipeline stage labels
const (
	StageTechnicalAnalysis = "technical_analysis"
	StageMarketState       = "market_state"
	StageStrategyPosture   = "strategy_posture"
	StageLiquidityRange    = "liquidity_range"
	StageRiskAssessment    = "risk_assessment"
)

// Price source request outcomes
const (
	SourceHit       = "hit"
	SourceEmpty     = "empty"
	SourceError     = "error"
	SourceUnhealthy = "unhealthy"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Reports          *prometheus.CounterVec
	StageFailures    *prometheus.CounterVec
	BacktestSteps    prometheus.Counter
	BacktestDuration prometheus.Histogram
	SourceRequests   *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Decision reports generated, by outcome.",
		}, []string{"outcome"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures, by stage.",
		}, []string{"stage"}),
		BacktestSteps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_steps_total",
			Help:      "Backtest steps recorded.",
		}),
		BacktestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_duration_seconds",
			Help:      "Wall time of completed backtest runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_source_requests_total",
			Help:      "Price source lookups, by source and outcome.",
		}, []string{"source", "outcome"}),
	}
}

// ReportGenerated counts a successful report
func (m *Metrics) ReportGenerated() {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues("ok").Inc()
}

// StageFailed counts a failed report and the stage that failed it
func (m *Metrics) StageFailed(stage string) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues("error").Inc()
	m.StageFailures.WithLabelValues(stage).Inc()
}

// BacktestCompleted records a finished run
func (m *Metrics) BacktestCompleted(steps int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BacktestSteps.Add(float64(steps))
	m.BacktestDuration.Observe(elapsed.Seconds())
}

// SourceRequest records one price source lookup
func (m *Metrics) SourceRequest(source, outcome string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
}
