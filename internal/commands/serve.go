package commands

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cache"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/config"
	apphttp "ledgerbook/internal/http"
	"ledgerbook/internal/log"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()
			return runServe(ctx, cfg, logger, backend.NewFactory(logger))
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) error {
	a, err := newApp(ctx, cfg, logger, factory, appOptions{publish: true, cache: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Shutdown cleanup failed", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:     a.ledger,
		People:     a.people,
		Categories: a.categories,
		Ready:      a.repo.Ping,
		Metrics:    a.metrics,
		Logger:     logger,
	}, apphttp.Options{
		RequestsPerMinute: cfg.RateLimit,
		TrustedProxies:    cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	manager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	for _, c := range a.cleaners {
		manager.Register(c)
	}

	logger.Info("Starting ledgerbook server",
		"port", cfg.Port,
		"data_backend", cfg.DataBackend,
		"events_backend", cfg.EventsBackend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, cfg.ShutdownTimeout)
	})
	if len(a.cleaners) > 0 {
		g.Go(func() error {
			return manager.Run(ctx, cfg.CacheCleanupEvery)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
