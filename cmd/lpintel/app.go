package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/lpintel/internal/analyze"
	"github.com/Alias1177/lpintel/internal/api/twelvedata"
	"github.com/Alias1177/lpintel/internal/config"
	"github.com/Alias1177/lpintel/internal/indicators"
	"github.com/Alias1177/lpintel/internal/metrics"
	"github.com/Alias1177/lpintel/internal/pricefeed"
	"github.com/Alias1177/lpintel/models"
)

// application is the wired object graph shared by the commands
type application struct {
	cfg          *config.Config
	feed         *pricefeed.Feed
	orchestrator *analyze.Orchestrator
	metrics      *metrics.Metrics
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, reg)
	}

	return &application{
		cfg:  cfg,
		feed: pricefeed.NewFeed(sources, pricefeed.WithMetrics(m)),
		orchestrator: analyze.NewOrchestrator(
			analyze.WithMetrics(m),
			analyze.WithIndicatorOptions(indicators.Options{
				ShortPeriod: cfg.MAShortPeriod,
				LongPeriod:  cfg.MALongPeriod,
			}),
		),
		metrics: m,
	}, nil
}

// buildSources creates the price sources in configured order
func buildSources(cfg *config.Config) ([]models.PriceSource, error) {
	sources := make([]models.PriceSource, 0, len(cfg.PriceSources))
	for _, name := range cfg.PriceSources {
		switch name {
		case config.SourceDummy:
			sources = append(sources, pricefeed.NewDummySource())
		case config.SourceFile:
			fs := pricefeed.NewFileSource(cfg.PricesFile)
			if err := fs.Err(); err != nil {
				log.Warn().Err(err).Str("path", cfg.PricesFile).Msg("Price file unavailable, source will report unhealthy")
			}
			sources = append(sources, fs)
		case config.SourceTwelveData:
			client := twelvedata.NewClient(twelvedata.ClientOptions{
				APIKey:         cfg.TwelveAPIKey,
				RequestTimeout: cfg.RequestTimeout,
				RequestsPerSec: cfg.RequestsPerSec,
				MaxRetries:     3,
			})
			sources = append(sources, pricefeed.WithBreaker(client, pricefeed.DefaultBreakerSettings()))
		default:
			return nil, fmt.Errorf("unknown price source %q", name)
		}
	}
	return sources, nil
}

// serveMetrics exposes reg on addr until ctx is done
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
