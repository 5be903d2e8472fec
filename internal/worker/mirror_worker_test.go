package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/core"
	"ledgerbook/internal/events"
	"ledgerbook/internal/services"
	sheetmem "ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/storage/memory"
	"ledgerbook/internal/storage/storagetest"
)

func newLedger(t *testing.T) (*services.LedgerService, core.EntryInput) {
	t.Helper()
	store := memory.New()
	resolver := services.NewResolver(store, store)
	ctx := context.Background()
	p, err := store.SavePerson(ctx, storagetest.SamplePerson("Ana"))
	require.NoError(t, err)
	c, err := store.SaveCategory(ctx, core.Category{Name: "Moradia"})
	require.NoError(t, err)

	in := core.EntryInput{
		Description: "Aluguel",
		DueDate:     core.NewDate(2025, 1, 10),
		Amount:      decimal.RequireFromString("1500"),
		Type:        "EXPENSE",
		CategoryID:  c.ID,
		PersonID:    p.ID,
	}
	return services.NewLedgerService(store, resolver, nil, nil, nil), in
}

func TestHandleEventExportsFullSnapshot(t *testing.T) {
	ledger, in := newLedger(t)
	ctx := context.Background()
	e, err := ledger.Create(ctx, in)
	require.NoError(t, err)

	exp := sheetmem.New()
	w := NewMirrorWorker(ledger, exp, nil, nil)
	require.NoError(t, w.HandleEvent(ctx, events.NewEntryEvent(events.ActionCreated, e.ID)))

	rows := exp.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, e.ID, rows[0].ID)
	assert.Equal(t, "1500.00", rows[0].Amount)
	assert.Equal(t, "Moradia", rows[0].Category)
	assert.Equal(t, "Ana", rows[0].Person)
	assert.Equal(t, "", rows[0].PaymentDate)

	require.NoError(t, ledger.Delete(ctx, e.ID))
	require.NoError(t, w.HandleEvent(ctx, events.NewEntryEvent(events.ActionDeleted, e.ID)))
	assert.Empty(t, exp.Snapshot())
}

func TestHandleEventReturnsExportErrors(t *testing.T) {
	ledger, _ := newLedger(t)
	exp := sheetmem.New()
	exp.SetErr(errors.New("quota exceeded"))
	w := NewMirrorWorker(ledger, exp, nil, nil)

	err := w.HandleEvent(context.Background(), events.NewEntryEvent(events.ActionUpdated, 1))
	assert.Error(t, err)
}

type stubConsumer struct {
	events []events.EntryEvent
}

func (s *stubConsumer) Consume(ctx context.Context, h events.Handler) error {
	for _, e := range s.events {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

func (s *stubConsumer) Close() error { return nil }

func TestRunSyncsOnStartupAndPerEvent(t *testing.T) {
	ledger, in := newLedger(t)
	_, err := ledger.Create(context.Background(), in)
	require.NoError(t, err)

	exp := sheetmem.New()
	w := NewMirrorWorker(ledger, exp, nil, nil)
	consumer := &stubConsumer{events: []events.EntryEvent{
		events.NewEntryEvent(events.ActionCreated, 1),
		events.NewEntryEvent(events.ActionUpdated, 1),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer, time.Hour) }()

	assert.Eventually(t, func() bool { return exp.Exports() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Len(t, exp.Snapshot(), 1)
}

func TestRunPeriodicResync(t *testing.T) {
	ledger, _ := newLedger(t)
	exp := sheetmem.New()
	w := NewMirrorWorker(ledger, exp, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return exp.Exports() >= 3 }, time.Second, 5*time.Millisecond)
}
