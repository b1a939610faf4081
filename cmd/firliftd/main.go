package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/firlift/firlift/internal/api"
	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/export"
	"github.com/firlift/firlift/internal/extract"
	"github.com/firlift/firlift/internal/history"
	"github.com/firlift/firlift/internal/repository"
	"github.com/firlift/firlift/internal/transport"
	"github.com/firlift/firlift/internal/uploader"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, driver, err := repository.Open(ctx, cfg.History.DSN, logger)
	if err != nil {
		logger.Error("failed to open history database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	archive := repository.NewHistoryArchive(db, driver, logger)
	if err := archive.Migrate(ctx); err != nil {
		logger.Error("failed to migrate history database", "error", err)
		os.Exit(1)
	}

	hist := history.NewStore(cfg.History.Cap, archive, logger)
	hist.Load(ctx)

	validator, err := extract.NewPayloadValidator(cfg.Backend.StrictPayload, logger)
	if err != nil {
		logger.Error("failed to build payload validator", "error", err)
		os.Exit(1)
	}

	client := transport.NewClient(cfg.Backend.BaseURL, cfg.Backend.UploadTimeout, logger)
	estimator := uploader.NewEstimator(cfg.Progress.Step, cfg.Progress.Interval)
	orch := uploader.NewOrchestrator(client, validator, hist, estimator, uploader.Config{
		UploadTimeout: cfg.Backend.UploadTimeout,
	}, logger)

	exporter := export.NewService(hist, logger)

	handler, err := api.NewHandler(orch, exporter, os.TempDir(), logger)
	if err != nil {
		logger.Error("failed to build API handler", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)
	api.RegisterRoutes(e, handler)

	go func() {
		logger.Info("firliftd listening", "addr", cfg.Server.HTTPAddr, "backend", cfg.Backend.BaseURL)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
