package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopflow/internal/archive"
	"shopflow/internal/common"
	"shopflow/internal/identify"
	"shopflow/internal/ledger"
	"shopflow/internal/media"
	"shopflow/internal/pipeline"
	"shopflow/internal/reconcile"
	"shopflow/internal/retry"
	googlesvc "shopflow/internal/services/google"
	"shopflow/internal/upload"
	"shopflow/internal/watch"
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

	// Auth preflight: a bad key aborts before any batch is touched.
	if err := common.ValidateCredentialsFile(cfg.Google.CredentialsFile); err != nil {
		logger.Error("credential preflight failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ocrClient, err := googlesvc.NewOCRClient(ctx, cfg.Google.CredentialsFile, logger)
	if err != nil {
		logger.Error("failed to create OCR client", "error", err)
		os.Exit(1)
	}
	sheetsClient, err := googlesvc.NewSheetsClient(ctx, cfg.Google.CredentialsFile, cfg.Sheet.SpreadsheetID, logger)
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}
	driveClient, err := googlesvc.NewDriveClient(ctx, cfg.Google.CredentialsFile, logger)
	if err != nil {
		logger.Error("failed to create drive client", "error", err)
		os.Exit(1)
	}

	ldg, err := ledger.Open(cfg.Paths.LedgerPath, logger)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := ldg.Close(); err != nil {
			logger.Error("failed to close ledger", "error", err)
		}
	}()

	reader := media.NewReader(media.ExecRunner{}, os.Getenv("HEIC_CONVERTER"))
	watcher := watch.NewWatcher(cfg.Paths.SourceDir, cfg.Watch, logger)
	extractor := identify.NewExtractor(ocrClient, reader, cfg.Pipeline.CallTimeout, logger)
	reconciler := reconcile.NewReconciler(sheetsClient, cfg.Sheet, cfg.Pipeline.CallTimeout, logger)
	uploader := upload.NewUploader(driveClient, cfg.Upload.FolderID, retry.Policy{
		MaxAttempts: cfg.Upload.Retries,
		BaseDelay:   cfg.Upload.BackoffBase,
	}, cfg.Pipeline.CallTimeout, logger)
	archiver := archive.NewArchiver(cfg.Paths, cfg.Pipeline, logger)

	driver := pipeline.NewDriver(cfg, watcher, extractor, ldg, reconciler, uploader, archiver, reader, logger)

	// Filesystem events wake the poll loop early; polling stays
	// authoritative if the nudger cannot start (e.g. network mounts).
	if nudge, err := watch.StartNudger(ctx, cfg.Paths.SourceDir, 2*time.Second, logger); err != nil {
		logger.Warn("nudger unavailable, relying on polling only", "error", err)
	} else {
		driver.SetNudge(nudge)
	}

	if err := driver.Run(ctx); err != nil {
		logger.Error("driver exited with error", "error", err)
		os.Exit(1)
	}
}
