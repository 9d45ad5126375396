package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/chart"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loaders := []pipeline.Loader{csvfile.NewWriter(cfg.OutputPath, cfg.Delimiter)}
	if cfg.XLSXPath != "" {
		loaders = append(loaders, xlsx.NewWriter(cfg.XLSXPath))
		logger.Info("spreadsheet export enabled", "path", cfg.XLSXPath)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	transformer := pipeline.NewTransformer(pipeline.Options{
		Criteria: domain.Criteria{
			Location:      cfg.TargetLocation,
			MinTotalCases: cfg.CaseThreshold,
			MinDate:       cfg.MinDate,
		},
		Comparison: cfg.ComparisonLocations,
		Window:     cfg.RollingWindow,
		Mode:       cfg.RollingMode,
	}, logger)

	p := pipeline.New(
		csvfile.NewReader(cfg.InputPath, cfg.Delimiter, logger),
		transformer,
		chart.NewRenderer(cfg.ChartDir, cfg.ChartFormat, cfg.RollingWindow, logger),
		loaders,
		logger,
		metrics,
	)

	return execute(ctx, cfg, p, prometheus.DefaultGatherer, logger)
}

// job is the part of the pipeline that execute drives.
type job interface {
	sharedobs.ReadinessChecker
	Run(ctx context.Context) (domain.Result, error)
}

// execute starts the report server, when configured, before the run so
// /readyz answers 503 until it succeeds. After a successful run the server
// keeps serving charts and metrics until ctx is cancelled.
func execute(ctx context.Context, cfg *config.Config, j job, g prometheus.Gatherer, logger *slog.Logger) error {
	var srv *httpadapter.Server
	errCh := make(chan error, 1)
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, j, cfg.ChartDir, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
	}

	_, runErr := j.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile, g); err != nil {
			logger.Error("write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}
	if srv == nil {
		return runErr
	}

	if runErr == nil {
		select {
		case <-ctx.Done():
		case err, ok := <-errCh:
			if ok {
				runErr = fmt.Errorf("http server: %w", err)
			}
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return runErr
}
