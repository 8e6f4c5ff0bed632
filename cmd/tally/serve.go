package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/filter"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
)

var errBrokerDown = errors.New("broker connection unhealthy")

func newServeCmd() *cobra.Command {
	var proxies []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			a, err := loadApp(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []apphttp.ServerOption{
				apphttp.WithLogger(a.logger),
				apphttp.WithCurrency(a.cfg.CurrencySymbol),
				apphttp.WithTrustedProxies(proxies...),
				apphttp.WithRateLimit(rateLimitConfig(a.cfg.RateLimitPerMinute)),
				apphttp.WithReadinessCheck("store", func(ctx context.Context) error {
					_, err := a.svc.Scoring.Rounds(ctx, filter.RoundFilter{})
					return err
				}),
			}
			if ev := a.backend.Backend.Events; ev != nil {
				opts = append(opts, apphttp.WithReadinessCheck("amqp", func(context.Context) error {
					if !ev.Healthy() {
						return errBrokerDown
					}
					return nil
				}))
			}

			srv, err := apphttp.NewServer(":"+a.cfg.Port, a.svc.Scoring, a.svc.Expenses, opts...)
			if err != nil {
				return err
			}

			a.logger.Info("Starting tally server",
				applog.FieldOperation, applog.OpStartup,
				"port", a.cfg.Port,
				"backend", a.cfg.DataBackend,
				"rate_limit_rpm", a.cfg.RateLimitPerMinute,
				"amqp_enabled", a.backend.Backend.Events != nil)
			if err := cli.Serve(ctx, srv, a.logger, cli.ShutdownTimeout); err != nil {
				return err
			}
			a.logger.Info("Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&proxies, "trusted-proxy", nil, "CIDR whose X-Forwarded-For is trusted (repeatable)")
	return cmd
}

func rateLimitConfig(perMinute int) ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = perMinute
	return rl
}
