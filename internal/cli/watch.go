package cli

import (
	"context"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/state"
)

// NewChangeHandler returns a consumer callback that logs every change event.
// With an exporter it also refreshes holder and exports the new snapshot.
// Export failures are logged and the event is still acknowledged; the next
// change exports the full state again.
func NewChangeHandler(holder *state.Holder, exporter sheets.SnapshotExporter, logger *applog.Logger) func(context.Context, *amqp.ChangeEvent) error {
	logger = logger.WithComponent(applog.ComponentAMQP)

	return func(ctx context.Context, ev *amqp.ChangeEvent) error {
		logger.InfoContext(ctx, "Change received",
			"type", ev.Type,
			applog.FieldKind, ev.Kind,
			applog.FieldID, ev.ID,
			applog.FieldCategory, ev.Category,
			applog.FieldAmountCents, ev.AmountCents,
			applog.FieldDate, ev.Date)

		if exporter == nil || holder == nil {
			return nil
		}

		if err := holder.Refresh(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to refresh snapshot after change", applog.NewFields().WithError(err).ToSlice()...)
			return nil
		}
		snap := holder.State().Snapshot
		if err := exporter.ExportSnapshot(ctx, snap); err != nil {
			logger.WithComponent(applog.ComponentSheets).ErrorContext(ctx, "Failed to export snapshot",
				applog.NewFields().WithError(err).ToSlice()...)
			return nil
		}
		logger.WithComponent(applog.ComponentSheets).InfoContext(ctx, "Snapshot exported", "operations", len(snap.Operations))
		return nil
	}
}
