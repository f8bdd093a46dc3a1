package sheets

import (
	"context"

	"fintrack/internal/core"
)

// SnapshotExporter writes a snapshot to an outbound destination, replacing
// whatever a previous export left there.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, snap core.Snapshot) error
}
