// Command tally-worker consumes round and expense events and mirrors them
// to a spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"tally/internal/cli"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if err := validateWorker(cfg); err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout).WithComponent(applog.ComponentWorker)
	logger.Info("Starting tally-worker", applog.FieldOperation, applog.OpStartup)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()
	events := be.Backend.Events
	if events == nil {
		return errors.New("AMQP broker unreachable")
	}

	mirror, err := cli.OpenMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}
	syncer := worker.NewSyncWorker(mirror, be.Backend.Store, cfg.GoogleRoundsSheet, cfg.GoogleExpensesSheet)

	// recover events published while the worker was down; failures are not fatal
	if err := syncer.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.Consume(gctx, syncer.HandleEvent)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
		return nil
	}
	return err
}

// validateWorker requires a broker; spreadsheet settings are only checked
// when a spreadsheet is configured, otherwise rows are mirrored in memory.
func validateWorker(cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if cfg.GoogleSpreadsheetID != "" {
		return cfg.ValidateSheets()
	}
	return nil
}
