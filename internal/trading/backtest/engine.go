package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/lpintel/internal/analyze"
	"github.com/Alias1177/lpintel/internal/metrics"
	"github.com/Alias1177/lpintel/models"
)

// DefaultWarmupPeriod is the number of leading prices never replayed
const DefaultWarmupPeriod = 200

// Reporter produces one decision report per snapshot
type Reporter interface {
	GenerateReport(req analyze.Request) (*models.DecisionReport, error)
}

// Params describes one replay. A WarmupPeriod of 0 means DefaultWarmupPeriod.
type Params struct {
	HistoricalPrices []float64
	CapitalUSD       float64
	Leverage         float64
	Direction        models.Direction
	WarmupPeriod     int
}

// Runner replays a price series through the orchestrator. It records what
// the system would have decided; no trades or PnL are simulated.
type Runner struct {
	reporter Reporter
	workers  int
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithReporter replaces the default orchestrator
func WithReporter(r Reporter) Option {
	return func(rn *Runner) { rn.reporter = r }
}

// WithWorkers evaluates up to n steps concurrently
func WithWorkers(n int) Option {
	return func(rn *Runner) {
		if n > 0 {
			rn.workers = n
		}
	}
}

// WithMetrics records completed runs on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(rn *Runner) { rn.metrics = m }
}

// WithLogger replaces the component logger
func WithLogger(l zerolog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// NewRunner creates a sequential Runner over a default orchestrator
func NewRunner(opts ...Option) *Runner {
	rn := &Runner{
		workers: 1,
		logger:  log.With().Str("component", "backtest_runner").Logger(),
	}
	for _, opt := range opts {
		opt(rn)
	}
	if rn.reporter == nil {
		rn.reporter = analyze.NewOrchestrator(
			analyze.WithMetrics(rn.metrics),
			analyze.WithLogger(rn.logger),
		)
	}
	return rn
}

// Run evaluates every index from the warmup period to the end of the series,
// each with the prefix up to and including that index. Any step failure
// aborts the run; the error names the lowest failing index.
func (rn *Runner) Run(ctx context.Context, p Params) (*models.BacktestResult, error) {
	warmup := p.WarmupPeriod
	if warmup == 0 {
		warmup = DefaultWarmupPeriod
	}
	if warmup < 0 {
		return nil, models.InvalidField("warmup_period", "must not be negative")
	}
	if len(p.HistoricalPrices) <= warmup {
		return nil, fmt.Errorf("%w: backtest needs more than %d prices, got %d",
			models.ErrInsufficientData, warmup, len(p.HistoricalPrices))
	}

	start := time.Now()
	count := len(p.HistoricalPrices) - warmup
	rn.logger.Info().
		Int("steps", count).
		Int("warmup", warmup).
		Int("workers", rn.workers).
		Msg("Starting backtest")

	var (
		steps []models.BacktestStepResult
		err   error
	)
	if rn.workers > 1 {
		steps, err = rn.runParallel(ctx, p, warmup)
	} else {
		steps, err = rn.runSequential(ctx, p, warmup)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	rn.metrics.BacktestCompleted(len(steps), elapsed)
	rn.logger.Info().
		Int("steps", len(steps)).
		Dur("elapsed", elapsed).
		Msg("Backtest completed")

	return &models.BacktestResult{
		RunID:        uuid.New(),
		WarmupPeriod: warmup,
		Direction:    p.Direction,
		Leverage:     p.Leverage,
		CapitalUSD:   p.CapitalUSD,
		Steps:        steps,
	}, nil
}

func (rn *Runner) runSequential(ctx context.Context, p Params, warmup int) ([]models.BacktestStepResult, error) {
	steps := make([]models.BacktestStepResult, 0, len(p.HistoricalPrices)-warmup)
	for i := warmup; i < len(p.HistoricalPrices); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step, err := rn.step(p, i)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// runParallel evaluates every step so the reported failure does not depend
// on scheduling.
func (rn *Runner) runParallel(ctx context.Context, p Params, warmup int) ([]models.BacktestStepResult, error) {
	count := len(p.HistoricalPrices) - warmup
	steps := make([]models.BacktestStepResult, count)
	errs := make([]error, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rn.workers)
	for i := warmup; i < len(p.HistoricalPrices); i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			steps[i-warmup], errs[i-warmup] = rn.step(p, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return steps, nil
}

func (rn *Runner) step(p Params, i int) (models.BacktestStepResult, error) {
	price := p.HistoricalPrices[i]
	report, err := rn.reporter.GenerateReport(analyze.Request{
		CurrentPrice:     price,
		HistoricalPrices: p.HistoricalPrices[:i+1],
		CapitalUSD:       p.CapitalUSD,
		Leverage:         p.Leverage,
		Direction:        p.Direction,
	})
	if err != nil {
		return models.BacktestStepResult{}, fmt.Errorf("backtest step %d: %w", i, err)
	}
	return models.BacktestStepResult{
		Index:          i,
		Price:          price,
		DecisionReport: *report,
	}, nil
}
