package memory

import (
	"context"
	"errors"
	"testing"

	"ledgerbook/internal/sheets"
)

func TestExporterKeepsLastSnapshot(t *testing.T) {
	e := New()
	ctx := context.Background()

	if err := e.Export(ctx, []sheets.Row{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := e.Export(ctx, []sheets.Row{{ID: 3}}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := e.Snapshot(); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	e.SetErr(errors.New("quota exceeded"))
	if err := e.Export(ctx, nil); err == nil {
		t.Fatal("expected error")
	}
	if e.Exports() != 2 || len(e.Snapshot()) != 1 {
		t.Fatalf("failed export must not replace the snapshot")
	}
}
