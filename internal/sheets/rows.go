package sheets

import (
	"strings"

	"fintrack/internal/core"
)

var OperationHeader = []any{"Date", "Kind", "Category", "Name", "Amount"}

// OperationRows renders ops as a header plus one row per operation, in the
// order given.
func OperationRows(ops []core.Operation) [][]any {
	rows := make([][]any, 0, len(ops)+1)
	rows = append(rows, OperationHeader)
	for _, op := range ops {
		rows = append(rows, []any{op.Date.ISO(), string(op.Kind), TextCell(op.Category), TextCell(op.Name), op.Amount.String()})
	}
	return rows
}

// SummaryRows renders totals followed by the per-category breakdowns,
// largest amount first.
func SummaryRows(snap core.Snapshot) [][]any {
	rows := [][]any{
		{"Metric", "Amount"},
		{"Total income", snap.TotalIncome.String()},
		{"Total expenses", snap.TotalExpenses.String()},
		{"Balance", snap.Balance.String()},
	}
	rows = appendBreakdown(rows, "Expenses by category", snap.ExpensesByCategory)
	rows = appendBreakdown(rows, "Income by category", snap.IncomeByCategory)
	return rows
}

func appendBreakdown(rows [][]any, title string, byCategory map[string]core.Money) [][]any {
	if len(byCategory) == 0 {
		return rows
	}
	rows = append(rows, []any{}, []any{title, ""})
	for _, ca := range core.Breakdown(byCategory) {
		rows = append(rows, []any{TextCell(ca.Name), ca.Amount.String()})
	}
	return rows
}

// TextCell keeps user text literal when the sheet parses input: a value that
// would start a formula gets a leading apostrophe.
func TextCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
