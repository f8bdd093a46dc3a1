//go:build integration

package google

import (
	"context"
	"os"
	"testing"

	"fintrack/internal/core"
)

// Integration tests require a real spreadsheet and service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	creds := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	inline := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	if creds == "" && inline == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	exporter, err := NewExporter(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		OperationsSheet: "Test Operations",
		SummarySheet:    "Test Summary",
		CredentialsJSON: inline,
		CredentialsFile: creds,
	})
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}

	snap := core.Summarize([]core.Operation{
		{ID: 1, Kind: core.Income, Name: "Integration", Amount: core.Money{Cents: 100000}, Category: "Salary", Date: core.NewDate(2024, 1, 1)},
		{ID: 1, Kind: core.Expense, Name: "Integration", Amount: core.Money{Cents: 2550}, Category: "Food", Date: core.NewDate(2024, 1, 2)},
	})
	if err := exporter.ExportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}
}
