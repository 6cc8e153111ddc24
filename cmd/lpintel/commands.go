package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/lpintel/internal/analyze"
	"github.com/Alias1177/lpintel/internal/config"
	"github.com/Alias1177/lpintel/internal/indicators"
	"github.com/Alias1177/lpintel/internal/pricefeed"
	"github.com/Alias1177/lpintel/internal/protocol"
	"github.com/Alias1177/lpintel/internal/report"
	"github.com/Alias1177/lpintel/internal/trading/backtest"
	"github.com/Alias1177/lpintel/models"
)

// overrides holds command line values that replace loaded configuration
type overrides struct {
	symbol     string
	interval   string
	direction  string
	capital    float64
	leverage   float64
	bars       int
	warmup     int
	workers    int
	sources    []string
	pricesFile string
	output     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var (
		ov  overrides
		app *application
	)

	root := &cobra.Command{
		Use:           "lpintel",
		Short:         "Liquidity provisioning decision reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ov.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			setupLogging(cfg.LogLevel, cfg.LogFormat)
			printConfig(cfg)

			app, err = newApplication(cmd.Context(), cfg)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ov.symbol, "symbol", "", "trading pair, e.g. SOL-USDC")
	flags.StringVar(&ov.interval, "interval", "", "candle interval")
	flags.StringVar(&ov.direction, "direction", "", "position direction (LONG or SHORT)")
	flags.Float64Var(&ov.capital, "capital", 0, "position capital in USD")
	flags.Float64Var(&ov.leverage, "leverage", 0, "position leverage, greater than 1")
	flags.IntVar(&ov.bars, "bars", 0, "history bars to fetch")
	flags.StringSliceVar(&ov.sources, "sources", nil, "ordered price sources (dummy, file, twelvedata)")
	flags.StringVar(&ov.pricesFile, "prices-file", "", "YAML price file for the file source")
	flags.StringVarP(&ov.output, "output", "o", "", "output format (text, json, yaml)")
	flags.StringVar(&ov.logLevel, "log-level", "", "log level")

	root.AddCommand(reportCmd(&app))
	root.AddCommand(backtestCmd(&app, &ov))
	root.AddCommand(sourcesCmd(&app))
	return root
}

func (ov *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("symbol") {
		cfg.Symbol = ov.symbol
	}
	if flags.Changed("interval") {
		cfg.Interval = ov.interval
	}
	if flags.Changed("direction") {
		cfg.Direction = strings.ToUpper(ov.direction)
	}
	if flags.Changed("capital") {
		cfg.CapitalUSD = ov.capital
	}
	if flags.Changed("leverage") {
		cfg.Leverage = ov.leverage
	}
	if flags.Changed("bars") {
		cfg.HistoryBars = ov.bars
	}
	if flags.Changed("warmup") {
		cfg.WarmupPeriod = ov.warmup
	}
	if flags.Changed("workers") {
		cfg.BacktestWorkers = ov.workers
	}
	if flags.Changed("sources") {
		cfg.PriceSources = ov.sources
	}
	if flags.Changed("prices-file") {
		cfg.PricesFile = ov.pricesFile
	}
	if flags.Changed("output") {
		cfg.OutputFormat = ov.output
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = ov.logLevel
	}
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Interval", cfg.Interval).
		Str("Direction", cfg.Direction).
		Float64("CapitalUSD", cfg.CapitalUSD).
		Float64("Leverage", cfg.Leverage).
		Int("MAShortPeriod", cfg.MAShortPeriod).
		Int("MALongPeriod", cfg.MALongPeriod).
		Int("HistoryBars", cfg.HistoryBars).
		Strs("PriceSources", cfg.PriceSources).
		Msg("Configuration loaded")
}

func reportCmd(app **application) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate a decision report for the latest price",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			closes, err := a.history(ctx)
			if err != nil {
				return err
			}
			price, err := a.feed.CurrentPrice(ctx, a.cfg.Symbol)
			if err != nil {
				return err
			}

			direction := models.Direction(a.cfg.Direction)
			rep, err := a.orchestrator.GenerateReport(analyze.Request{
				CurrentPrice:     price,
				HistoricalPrices: closes,
				CapitalUSD:       a.cfg.CapitalUSD,
				Leverage:         a.cfg.Leverage,
				Direction:        direction,
			})
			if err != nil {
				return fmt.Errorf("generating report: %w", err)
			}

			validated := protocol.NewAdapter().ValidateRange(protocol.FromReport(rep, direction))
			if !validated.IsValid {
				log.Warn().Str("notes", validated.Notes).Msg("Range rejected by protocol constraints")
			}

			return report.WriteDecision(cmd.OutOrStdout(), a.cfg.OutputFormat, &report.Decision{
				Symbol:    a.cfg.Symbol,
				Direction: direction,
				Report:    rep,
				Protocol:  &validated,
			})
		},
	}
}

func backtestCmd(app **application, ov *overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay history and summarize the decisions taken",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			closes, err := a.history(ctx)
			if err != nil {
				return err
			}

			runner := backtest.NewRunner(
				backtest.WithReporter(a.orchestrator),
				backtest.WithWorkers(a.cfg.BacktestWorkers),
				backtest.WithMetrics(a.metrics),
			)
			result, err := runner.Run(ctx, backtest.Params{
				HistoricalPrices: closes,
				CapitalUSD:       a.cfg.CapitalUSD,
				Leverage:         a.cfg.Leverage,
				Direction:        models.Direction(a.cfg.Direction),
				WarmupPeriod:     a.cfg.WarmupPeriod,
			})
			if err != nil {
				return err
			}

			summary, err := backtest.Analyze(result)
			if err != nil {
				return err
			}
			return report.WriteBacktest(cmd.OutOrStdout(), a.cfg.OutputFormat, report.NewBacktest(a.cfg.Symbol, result, summary))
		},
	}
	cmd.Flags().IntVar(&ov.warmup, "warmup", 0, "leading prices excluded from the replay")
	cmd.Flags().IntVar(&ov.workers, "workers", 0, "steps evaluated concurrently")
	return cmd
}

func sourcesCmd(app **application) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show the health of each configured price source",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			healthy := 0
			for i, st := range a.feed.Status(ctx) {
				status := "unhealthy"
				if st.Healthy {
					status = "healthy"
					healthy++
				}
				fmt.Fprintf(out, "%d. %s: %s\n", i+1, st.Name, status)
			}
			if healthy == 0 {
				return fmt.Errorf("%w: no healthy price source", models.ErrAllSourcesFailed)
			}
			return nil
		},
	}
}

// history fetches HistoryBars candles ending now and returns their closes
func (a *application) history(ctx context.Context) ([]float64, error) {
	start, end, err := models.HistoryWindow(a.cfg.Interval, a.cfg.HistoryBars, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	candles, err := a.feed.HistoricalPrices(ctx, a.cfg.Symbol, start, end, a.cfg.Interval)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(candles)).Str("symbol", a.cfg.Symbol).Msg("Fetched history")

	if len(candles) < indicators.MinHistory {
		log.Warn().Int("count", len(candles)).Int("need", indicators.MinHistory).Msg("History shorter than the indicator window")
	}
	return pricefeed.Closes(candles), nil
}
