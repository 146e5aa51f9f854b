package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/salesdash/internal/config"
	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/logging"
	"github.com/JonMunkholm/salesdash/internal/metrics"
	"github.com/JonMunkholm/salesdash/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Example: `  SOURCE_PATH=./transactions.csv salesdash serve
  SOURCE_PATH=./transactions.csv SERVER_PORT=9000 LOG_FORMAT=json salesdash serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"source", cfg.Source.Path,
		"port", cfg.Server.Port,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)
	logger.Debug("configuration", "config", cfg.String())

	var reg *metrics.Registry
	cacheOpts := []core.CacheOption{core.WithCacheLogger(logger)}
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		cacheOpts = append(cacheOpts, core.WithObserver(reg))
	}

	pipeline := core.NewPipeline(core.LoadOptions{
		Delimiter: cfg.Source.DelimiterRune(),
		MaxBytes:  cfg.Source.MaxFileSize,
	}, logger)
	cache := core.NewCache(pipeline.Load, cacheOpts...)

	service, err := core.NewService(core.ServiceConfig{
		SourcePath: cfg.Source.Path,
		Dashboard: core.DashboardOptions{
			TopN:             cfg.Dashboard.TopN,
			FAQTopN:          cfg.Dashboard.FAQTopN,
			ScatterQuantile:  cfg.Dashboard.ScatterQuantile,
			ScatterMaxPoints: cfg.Dashboard.ScatterMaxPoints,
		},
		PreviewRows: cfg.Dashboard.PreviewRows,
	}, cache, core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime), logger)
	if err != nil {
		return err
	}

	if cfg.Source.Preload {
		// A failed preload is not fatal: requests retry the load and report the error.
		go func() {
			loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Source.LoadTimeout)
			defer cancel()
			if ds, err := service.Dataset(loadCtx); err != nil {
				logger.Warn("preload failed", "source", cfg.Source.Path, "error", core.FormatUserError(err))
			} else {
				logger.Info("dataset preloaded", "dataset_id", ds.ID, "facts", len(ds.Facts))
			}
		}()
	}

	server := web.NewServer(service, web.Options{
		Security:       cfg.Security,
		Rate:           cfg.Rate,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsPath:    cfg.Metrics.Path,
		Metrics:        reg,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Server) }()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before draining exports.
	shutdownErr := server.Shutdown(shutdownCtx)
	if err := service.DrainExports(shutdownCtx); err != nil {
		slog.Warn("exports did not complete in time", "error", err)
	}
	if shutdownErr != nil {
		slog.Error("shutdown error", "error", shutdownErr)
		return shutdownErr
	}
	return <-errCh
}
