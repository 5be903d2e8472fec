// Package memory is an in-process EntryExporter that keeps the last snapshot.
package memory

import (
	"context"
	"sync"

	"ledgerbook/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	rows    []sheets.Row
	exports int
	err     error
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(_ context.Context, rows []sheets.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.rows = append([]sheets.Row(nil), rows...)
	e.exports++
	return nil
}

// Snapshot returns the rows of the last successful export.
func (e *Exporter) Snapshot() []sheets.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.Row(nil), e.rows...)
}

func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}

// SetErr makes every later Export fail with err until cleared with nil.
func (e *Exporter) SetErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}
