// Command tally runs the scoring and expense server and offers maintenance
// commands over the same store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/backend"
	"tally/internal/cli"
	"tally/internal/config"
	applog "tally/internal/log"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tally",
		Short:         "Round scorer and expense tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newRoundsCmd())
	root.AddCommand(newExpensesCmd())
	root.AddCommand(newTasksCmd())
	return root
}

// app is everything a command needs; Close releases it.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
	svc     *cli.Services
}

// loadApp reads the environment and opens the store. Logs go to logOut so
// commands that print data keep stdout clean.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg.LogLevel, logOut)

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	svc, err := cli.NewServices(ctx, cfg, be.Backend, logger)
	if err != nil {
		_ = be.Cleanup()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, backend: be, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.svc.Close(); err != nil {
		a.logger.Error("Failed to stop services", applog.FieldError, err)
	}
	if err := a.backend.Cleanup(); err != nil {
		a.logger.Error("Failed to close backend", applog.FieldError, err)
	}
}

// withApp wraps a command body with loadApp and Close.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
