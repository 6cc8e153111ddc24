package analyze

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/lpintel/internal/analysis/market"
	"github.com/Alias1177/lpintel/internal/analysis/posture"
	"github.com/Alias1177/lpintel/internal/indicators"
	"github.com/Alias1177/lpintel/internal/liquidity"
	"github.com/Alias1177/lpintel/internal/metrics"
	"github.com/Alias1177/lpintel/internal/trading/risk"
	"github.com/Alias1177/lpintel/models"
)

// Request is one price snapshot plus position parameters
type Request struct {
	CurrentPrice     float64
	HistoricalPrices []float64
	CapitalUSD       float64
	Leverage         float64
	Direction        models.Direction
}

// Orchestrator chains the analysis stages into a DecisionReport.
// It holds configuration only and is safe for concurrent use.
type Orchestrator struct {
	indicatorOpts indicators.Options
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithIndicatorOptions sets the moving average periods
func WithIndicatorOptions(opts indicators.Options) Option {
	return func(o *Orchestrator) { o.indicatorOpts = opts }
}

// WithMetrics records report outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger replaces the component logger
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an Orchestrator with 20/200 moving averages
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		indicatorOpts: indicators.DefaultOptions(),
		logger:        log.With().Str("component", "lp_decision_orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateReport runs every stage for one snapshot. The first stage failure
// is returned unchanged and no partial report is produced.
func (o *Orchestrator) GenerateReport(req Request) (*models.DecisionReport, error) {
	ta, err := indicators.Extract(req.HistoricalPrices, o.indicatorOpts)
	if err != nil {
		return nil, o.fail(metrics.StageTechnicalAnalysis, err)
	}

	state, err := market.ClassifyMarketState(ta)
	if err != nil {
		return nil, o.fail(metrics.StageMarketState, err)
	}

	sp := posture.DeterminePosture(posture.Input{
		State:      strings.ToUpper(string(state.MarketState)),
		Confidence: state.Confidence,
	})

	// range and risk only depend on the stages above
	var (
		lr                *models.LiquidityRange
		ra                *models.RiskAssessment
		rangeErr, riskErr error
		g                 errgroup.Group
	)
	g.Go(func() error {
		lr, rangeErr = liquidity.ComputeRange(liquidity.Input{
			CurrentPrice:    req.CurrentPrice,
			Direction:       req.Direction,
			VolatilityLabel: ta.VolatilityLabel,
			Posture:         sp.Posture,
			Confidence:      sp.Confidence,
		})
		return rangeErr
	})
	g.Go(func() error {
		ra, riskErr = risk.AssessRisk(risk.Input{
			CurrentPrice: req.CurrentPrice,
			CapitalUSD:   req.CapitalUSD,
			Leverage:     req.Leverage,
			Direction:    req.Direction,
			Confidence:   sp.Confidence,
		})
		return riskErr
	})
	if err := g.Wait(); err != nil {
		// report in stage order when both fail
		if rangeErr != nil {
			return nil, o.fail(metrics.StageLiquidityRange, rangeErr)
		}
		return nil, o.fail(metrics.StageRiskAssessment, riskErr)
	}

	o.metrics.ReportGenerated()
	o.logger.Debug().
		Float64("price", req.CurrentPrice).
		Str("market_state", string(state.MarketState)).
		Str("posture", string(sp.Posture)).
		Str("risk_level", string(ra.RiskLevel)).
		Msg("Decision report generated")

	return &models.DecisionReport{
		PriceContext:      models.PriceContext{CurrentPrice: req.CurrentPrice},
		TechnicalAnalysis: *ta,
		MarketState:       *state,
		StrategyPosture:   sp,
		LiquidityRange:    *lr,
		RiskAssessment:    *ra,
	}, nil
}

func (o *Orchestrator) fail(stage string, err error) error {
	o.metrics.StageFailed(stage)
	o.logger.Debug().Err(err).Str("stage", stage).Msg("Pipeline stage failed")
	return err
}
