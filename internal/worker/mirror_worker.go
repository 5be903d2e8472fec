// Package worker keeps the sheet mirror in step with the ledger. Every event
// and every resync tick rewrites the full snapshot, so lost or duplicated
// events only delay convergence.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerbook/internal/core"
	"ledgerbook/internal/events"
	"ledgerbook/internal/log"
	"ledgerbook/internal/metrics"
	"ledgerbook/internal/services"
	"ledgerbook/internal/sheets"
)

// Ledger is the read side of services.LedgerService the worker needs.
type Ledger interface {
	List(ctx context.Context) ([]core.Entry, error)
	Details(ctx context.Context, entries []core.Entry) ([]services.EntryDetails, error)
}

type MirrorWorker struct {
	ledger   Ledger
	exporter sheets.EntryExporter
	metrics  *metrics.Metrics
	logger   *log.Logger

	// exports never overlap
	mu sync.Mutex
}

func NewMirrorWorker(ledger Ledger, exporter sheets.EntryExporter, m *metrics.Metrics, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		ledger:   ledger,
		exporter: exporter,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is an events.Handler. The returned error asks the broker to
// redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, e events.EntryEvent) error {
	w.logger.InfoContext(ctx, "Processing entry event",
		log.FieldEntryID, e.EntryID,
		log.FieldAction, e.Action,
		"event_id", e.ID)
	return w.Sync(ctx)
}

// Sync exports the current ledger.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.ledger.List(ctx)
	if err != nil {
		w.metrics.MirrorExported(0, err)
		return fmt.Errorf("list entries: %w", err)
	}
	details, err := w.ledger.Details(ctx, entries)
	if err != nil {
		w.metrics.MirrorExported(0, err)
		return fmt.Errorf("resolve entry details: %w", err)
	}

	rows := make([]sheets.Row, 0, len(details))
	for _, d := range details {
		rows = append(rows, ToRow(d))
	}
	err = w.exporter.Export(ctx, rows)
	w.metrics.MirrorExported(len(rows), err)
	if err != nil {
		return fmt.Errorf("export mirror: %w", err)
	}

	w.logger.DebugContext(ctx, "Mirror synced", log.FieldOperation, log.OpSync, "rows", len(rows))
	return nil
}

// Run syncs once, then consumes events and resyncs every interval until ctx
// is done. A zero interval disables the periodic resync. A nil consumer runs
// the periodic resync alone.
func (w *MirrorWorker) Run(ctx context.Context, consumer events.Consumer, interval time.Duration) error {
	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sync failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.Consume(ctx, w.HandleEvent)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			w.resyncLoop(ctx, interval)
			return nil
		})
	}
	return g.Wait()
}

func (w *MirrorWorker) resyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func ToRow(d services.EntryDetails) sheets.Row {
	r := sheets.Row{
		ID:          d.ID,
		Description: d.Description,
		DueDate:     d.DueDate.String(),
		Amount:      core.FormatAmount(d.Amount),
		Type:        d.Type.String(),
		Category:    d.CategoryName,
		Person:      d.PersonName,
		Note:        d.Note,
	}
	if d.PaymentDate != nil {
		r.PaymentDate = d.PaymentDate.String()
	}
	return r
}
