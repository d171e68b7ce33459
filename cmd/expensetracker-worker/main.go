package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).WorkerValidate)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting expensetracker-worker", log.FieldOperation, log.OpStartup)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store := cli.InitBackend(startCtx, logger, cfg)
	defer cli.CloseBackend(logger, store)

	sheetsClient, err := gsheet.New(startCtx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	sheetsLogger := logger.WithComponent(log.ComponentSheets)
	if err != nil {
		sheetsLogger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(startCtx); err != nil {
		sheetsLogger.Error("Failed to prepare sheet", log.FieldError, err, "sheet", cfg.GoogleSheetName)
		os.Exit(1)
	}
	sheetsLogger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient := cli.InitAMQP(logger, cfg, true)
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(store.Store, sheetsClient, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, mirror.HandleEvent)
	})
	g.Go(func() error {
		reconcile := func() {
			if err := mirror.Reconcile(gctx); err != nil && gctx.Err() == nil {
				logger.Error("Reconcile failed", log.FieldOperation, log.OpReconcile, log.FieldError, err)
			}
		}

		logger.Info("Performing startup reconcile...")
		reconcile()

		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				reconcile()
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker shutdown complete")
}
