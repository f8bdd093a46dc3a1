package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestExporterReplacesRows(t *testing.T) {
	e := New()
	ctx := context.Background()

	first := core.Summarize([]core.Operation{
		{Kind: core.Expense, Amount: core.Money{Cents: 100}, Category: "Food", Date: core.NewDate(2024, 1, 1)},
		{Kind: core.Expense, Amount: core.Money{Cents: 200}, Category: "Food", Date: core.NewDate(2024, 1, 2)},
	})
	if err := e.ExportSnapshot(ctx, first); err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if err := e.ExportSnapshot(ctx, core.Summarize(nil)); err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}

	ops, summary := e.Sheets()
	if len(ops) != 1 {
		t.Errorf("operations rows = %d, want header only after second export", len(ops))
	}
	if len(summary) != 4 {
		t.Errorf("summary rows = %d, want 4", len(summary))
	}
	if e.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", e.Exports())
	}
}

func TestExporterHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New()
	if err := e.ExportSnapshot(ctx, core.Snapshot{}); err == nil {
		t.Error("ExportSnapshot() should fail on a cancelled context")
	}
	if e.Exports() != 0 {
		t.Error("cancelled export must not replace rows")
	}
}
