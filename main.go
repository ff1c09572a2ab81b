package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"hawker-closures/config"
	"hawker-closures/metrics"
	"hawker-closures/server"
	"hawker-closures/services"
	"hawker-closures/source/datagov"
	"hawker-closures/storage"
	"hawker-closures/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(utils.LoggerOptions{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("=== Hawker Centre Closures starting ===")
	logger.Info("Config: resource %s | page size: %d | concurrency: %d | rate: %dms",
		cfg.DataGovResourceID, cfg.PageSize, cfg.MaxConcurrency, cfg.RateLimitMs)

	registry := prometheus.NewRegistry()
	pipeline := services.NewPipeline(datagov.New(cfg, logger), logger, metrics.New(registry))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ServeMode() {
		if err := serve(ctx, cfg, logger, pipeline, registry); err != nil {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(ctx, cfg, logger, pipeline); err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, cfg *config.Config, logger *utils.Logger, pipeline *services.Pipeline) error {
	result, err := pipeline.Run(ctx, time.Now())
	if err != nil {
		return err
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputDir)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	if err := csvWriter.WriteRaw(result.RawRecords, services.SourceColumns()); err != nil {
		logger.Error("Raw CSV export failed: %v", err)
	}

	table := services.BuildTable(result.Classification)
	if err := csvWriter.WriteTables(result, table); err != nil {
		logger.Error("Table CSV export failed: %v", err)
	} else {
		logger.Info("Tables saved to %s", csvWriter.Dir())
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(result))

	fmt.Printf("  Done. %d rows in the hawker table → %s\n\n", len(table), cfg.CSVOutputDir)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, logger *utils.Logger, pipeline *services.Pipeline, registry *prometheus.Registry) error {
	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := server.NewHandler(pipeline, logger, time.Now)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(handler, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
