package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/config"
	"ledgerbook/internal/log"
	"ledgerbook/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Mirror the ledger into the configured sheet",
		Long: "Consumes entry events and rewrites the sheet mirror on each one, with a " +
			"periodic full resync every SYNC_INTERVAL.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()
			return runWorker(ctx, cfg, logger, backend.NewFactory(logger), once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "sync the mirror once and exit")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory, once bool) error {
	// The mirror reads names written by other processes, so it never caches.
	a, err := newApp(ctx, cfg, logger, factory, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Shutdown cleanup failed", log.FieldError, err)
		}
	}()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	exporter, err := factory.CreateExporter(ctx, bc)
	if err != nil {
		return err
	}

	mirror := worker.NewMirrorWorker(a.ledger, exporter, a.metrics, logger)
	if once {
		return mirror.Sync(ctx)
	}

	consumer, err := factory.CreateConsumer(ctx, bc)
	if err != nil {
		return err
	}
	if consumer != nil {
		defer consumer.Close()
	} else if cfg.SyncInterval == 0 {
		return errors.New("worker has nothing to do: events are disabled and SYNC_INTERVAL is 0")
	}

	logger.Info("Starting ledgerbook worker",
		"events_backend", cfg.EventsBackend,
		"mirror_backend", cfg.MirrorBackend,
		"sync_interval", cfg.SyncInterval)
	if err := mirror.Run(ctx, consumer, cfg.SyncInterval); err != nil {
		return err
	}
	logger.Info("Worker shutdown complete")
	return nil
}
