package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options identifies the spreadsheet and how to authenticate against it.
type Options struct {
	SpreadsheetID   string
	OperationsSheet string
	SummarySheet    string
	CredentialsJSON string
	CredentialsFile string
}

// Exporter rewrites an operations sheet and a summary sheet from a snapshot.
type Exporter struct {
	svc             *gsheet.Service
	spreadsheetID   string
	operationsSheet string
	summarySheet    string
}

var _ sheets.SnapshotExporter = (*Exporter)(nil)

// NewExporter creates a Sheets client authenticated with service account
// credentials, inline JSON first, then the file.
func NewExporter(ctx context.Context, opts Options) (*Exporter, error) {
	credentialsJSON, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newExporter(ctx, opts,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newExporter(ctx context.Context, opts Options, clientOpts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.OperationsSheet == "" {
		opts.OperationsSheet = "Operations"
	}
	if opts.SummarySheet == "" {
		opts.SummarySheet = "Summary"
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:             svc,
		spreadsheetID:   strings.TrimSpace(opts.SpreadsheetID),
		operationsSheet: opts.OperationsSheet,
		summarySheet:    opts.SummarySheet,
	}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// ExportSnapshot clears both sheets and writes the snapshot's operations and
// summary. Amounts are written as USER_ENTERED so Sheets parses them as
// numbers; text cells are escaped by the row builders.
func (e *Exporter) ExportSnapshot(ctx context.Context, snap core.Snapshot) error {
	if err := e.replace(ctx, e.operationsSheet, sheets.OperationRows(snap.Operations)); err != nil {
		return err
	}
	if err := e.replace(ctx, e.summarySheet, sheets.SummaryRows(snap)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Snapshot exported to Google Sheets",
		"spreadsheet_id", e.spreadsheetID,
		"operations", len(snap.Operations),
		"balance_cents", snap.Balance.Cents)
	return nil
}

func (e *Exporter) replace(ctx context.Context, sheet string, rows [][]any) error {
	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, sheetRange(sheet, ""), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, sheetRange(sheet, "A1"), &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", sheet, err)
	}
	return nil
}

// sheetRange builds an A1 range with the sheet name quoted, so names with
// spaces or punctuation stay valid. An empty cell selects the whole sheet.
func sheetRange(sheet, cell string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cell == "" {
		return quoted
	}
	return quoted + "!" + cell
}
