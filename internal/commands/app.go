package commands

import (
	"context"
	"errors"
	"fmt"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cache"
	"ledgerbook/internal/config"
	"ledgerbook/internal/events"
	"ledgerbook/internal/log"
	"ledgerbook/internal/metrics"
	"ledgerbook/internal/services"
	"ledgerbook/internal/storage"
)

// app is the service graph shared by serve and worker.
type app struct {
	repo       storage.Repository
	publisher  events.Publisher
	metrics    *metrics.Metrics
	resolver   *services.Resolver
	cleaners   []cache.Cleaner
	ledger     *services.LedgerService
	people     *services.PersonService
	categories *services.CategoryService
}

// appOptions selects the optional parts of the service graph.
type appOptions struct {
	publish bool
	// cache enables the resolver name cache when CacheSize allows it.
	cache bool
}

// newApp opens the repository and, when opts.publish is set, the event publisher.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory, opts appOptions) (*app, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := factory.CreateRepository(ctx, bc)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Nop{}
	if opts.publish {
		if publisher, err = factory.CreatePublisher(ctx, bc); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}

	a := &app{repo: repo, publisher: publisher, metrics: metrics.New()}
	if opts.cache && cfg.CacheSize > 0 {
		a.resolver, a.cleaners = services.NewCachedResolver(repo, repo, cfg.CacheSize, cfg.CacheTTL)
	} else {
		a.resolver = services.NewResolver(repo, repo)
	}
	a.ledger = services.NewLedgerService(repo, a.resolver, publisher, a.metrics, logger)
	a.people = services.NewPersonService(repo, repo, a.resolver, logger)
	a.categories = services.NewCategoryService(repo, repo, a.resolver, logger)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := a.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close repository: %w", err))
	}
	return errors.Join(errs...)
}
