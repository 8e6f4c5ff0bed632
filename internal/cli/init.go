// Package cli provides the initialization shared by cmd/tally and
// cmd/tally-worker: environment, logging, backends and services.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/seed"
	"tally/internal/services"
	"tally/internal/sheets"
	"tally/internal/timer"
)

// ShutdownTimeout bounds how long in-flight requests may take after a signal.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadConfig reads the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend opens the configured store and, when AMQP_URL is set, the
// event client.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
}

// OpenMirror returns the spreadsheet the worker writes to: Google Sheets when
// a spreadsheet id is configured, an in-memory mirror otherwise.
func OpenMirror(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.Mirror, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentSheets).Slog()).CreateMirror(ctx, bcfg)
}

// Services bundles the two application services over one store.
type Services struct {
	Scoring  *services.ScoringService
	Expenses *services.ExpenseService
}

// Close stops the scoring timer.
func (s *Services) Close() error {
	return s.Scoring.Close()
}

// NewServices builds the scoring and expense services from cfg. A tasks seed
// file, when configured, replaces the built-in default catalog.
func NewServices(ctx context.Context, cfg *config.Config, be backend.Backend, logger *applog.Logger) (*Services, error) {
	opts := []services.Option{
		services.WithLocation(cfg.Location()),
		services.WithSampleExpenses(cfg.SeedSampleExpenses),
		services.WithLogger(logger.Logger),
		services.WithTimerOptions(timer.WithRefresh(cfg.TimerRefresh)),
	}
	// a nil *amqp.Client stored in the interface would not compare equal to nil
	if be.Events != nil {
		opts = append(opts, services.WithPublisher(be.Events))
	}
	if cfg.TasksSeedFile != "" {
		tasks, err := seed.LoadTasksFile(cfg.TasksSeedFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, services.WithDefaultTasks(func() []core.Task { return core.CloneTasks(tasks) }))
		logger.Info("Loaded task seed file", "path", cfg.TasksSeedFile, "tasks", len(tasks))
	}

	scoring, err := services.NewScoringService(ctx, be.Store, opts...)
	if err != nil {
		return nil, fmt.Errorf("init scoring service: %w", err)
	}
	expenses, err := services.NewExpenseService(ctx, be.Store, opts...)
	if err != nil {
		_ = scoring.Close()
		return nil, fmt.Errorf("init expense service: %w", err)
	}
	return &Services{Scoring: scoring, Expenses: expenses}, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// HTTPServer is the part of *http.Server that Serve drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Serve runs srv until ctx is cancelled, then shuts it down within timeout.
func Serve(ctx context.Context, srv HTTPServer, logger *applog.Logger, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
