package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/extract"
	"github.com/firlift/firlift/internal/history"
	"github.com/firlift/firlift/internal/repository"
	"github.com/firlift/firlift/internal/transport"
	"github.com/firlift/firlift/internal/uploader"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "firlift <document-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.UploadTimeout+30*time.Second)
	defer cancel()

	db, driver, err := repository.Open(ctx, cfg.History.DSN, logger)
	if err != nil {
		logger.Error("open history database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	archive := repository.NewHistoryArchive(db, driver, logger)
	if err := archive.Migrate(ctx); err != nil {
		logger.Error("migrate history database", "error", err)
		os.Exit(1)
	}

	hist := history.NewStore(cfg.History.Cap, archive, logger)
	hist.Load(ctx)

	validator, err := extract.NewPayloadValidator(cfg.Backend.StrictPayload, logger)
	if err != nil {
		logger.Error("build payload validator", "error", err)
		os.Exit(1)
	}

	client := transport.NewClient(cfg.Backend.BaseURL, cfg.Backend.UploadTimeout, logger)
	estimator := uploader.NewEstimator(cfg.Progress.Step, cfg.Progress.Interval)
	orch := uploader.NewOrchestrator(client, validator, hist, estimator, uploader.Config{
		UploadTimeout: cfg.Backend.UploadTimeout,
	}, logger)

	ext := filepath.Ext(path)
	file := extract.FileReference{
		Locator:  path,
		Name:     filepath.Base(path),
		MIMEType: constants.MIMEForExt(ext),
	}
	if err := orch.Submit(file); err != nil {
		logger.Error("submit failed", "error", err)
		os.Exit(1)
	}

	for {
		s := orch.Session()
		if s.Status == constants.UploadStatusSucceeded {
			break
		}
		if s.Status == constants.UploadStatusFailed {
			logger.Error("upload failed", "error", s.Error)
			os.Exit(1)
		}
		select {
		case <-ctx.Done():
			logger.Error("timed out waiting for upload")
			os.Exit(1)
		case <-time.After(100 * time.Millisecond):
		}
	}

	out, err := json.MarshalIndent(orch.Current(), "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(append(out, '\n'))

	// Give the fire-and-forget history write a moment to land before exit.
	time.Sleep(200 * time.Millisecond)
}
