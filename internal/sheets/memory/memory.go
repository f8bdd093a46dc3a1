// Package memory keeps exported rows in process. The CLI uses it for
// export dry runs.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu         sync.Mutex
	operations [][]any
	summary    [][]any
	exports    int
}

var _ sheets.SnapshotExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportSnapshot replaces the held rows with the snapshot's.
func (e *Exporter) ExportSnapshot(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ops := sheets.OperationRows(snap.Operations)
	summary := sheets.SummaryRows(snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.operations = ops
	e.summary = summary
	e.exports++
	return nil
}

// Sheets returns copies of the last exported operations and summary rows.
func (e *Exporter) Sheets() (operations, summary [][]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.operations...), append([][]any(nil), e.summary...)
}

func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
