package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/export"
	"github.com/firlift/firlift/internal/history"
	"github.com/firlift/firlift/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	outPath := "fir_history.xlsx"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	data, err := export.NewService(hist, logger).ExportHistoryXLSX()
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		logger.Error("write workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("history exported", "path", outPath, "entries", hist.Len())
}
