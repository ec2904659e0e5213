package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/solarstats/internal/analysis"
	"github.com/chrissnell/solarstats/internal/controllers/restserver"
	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/chrissnell/solarstats/internal/metrics"
	"github.com/chrissnell/solarstats/internal/series"
	"github.com/chrissnell/solarstats/internal/timestamp"
	"github.com/chrissnell/solarstats/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// NewDashboard wires the loader, cache and dashboard described by cfg
func NewDashboard(cfg *config.ConfigData, logger *zap.SugaredLogger) (*dashboard.Dashboard, *series.Cache, error) {
	loc, err := cfg.Source.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone %q: %w", cfg.Source.Timezone, err)
	}
	bucket, err := analysis.ParseBucket(cfg.Analysis.DefaultBucket)
	if err != nil {
		return nil, nil, err
	}
	policy, err := dashboard.ParseMissingPolicy(cfg.Analysis.MissingValues)
	if err != nil {
		return nil, nil, err
	}

	loader := series.NewLoader(series.Options{
		TimestampHeader: cfg.Source.TimestampHeader,
		Delimiter:       cfg.Source.DelimiterRune(),
		Normalizer:      timestamp.NewNormalizer(cfg.Source.TimestampLayout, loc),
	}, logger.Named("loader"))
	cache := series.NewCache(loader, logger.Named("cache"))

	dash := dashboard.New(dashboard.Config{
		SourcePath:           cfg.Source.Path,
		Keywords:             cfg.Analysis.GenerationKeywords,
		PreferredCorrelation: cfg.Analysis.PreferredCorrelation,
		DefaultBucket:        bucket,
		HistogramBins:        cfg.Analysis.HistogramBins,
		MissingValues:        policy,
	}, cache, logger.Named("dashboard"))

	return dash, cache, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash, cache, err := NewDashboard(a.cfg, a.logger)
	if err != nil {
		return err
	}
	m := metrics.New()
	cache.Observe(m)

	// Warm the cache so the first request does not pay for parsing. A broken source is
	// not fatal: it is reported per request and reloaded once the file changes.
	if tbl, err := cache.Load(a.cfg.Source.Path); err != nil {
		a.logger.Warnf("initial load of %s failed: %v", a.cfg.Source.Path, err)
	} else {
		a.logger.Infof("loaded %d rows from %s", tbl.Len(), a.cfg.Source.Path)
	}

	rest, err := restserver.NewController(ctx, &wg, a.cfg.Server, dash, m, a.logger.Named("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
