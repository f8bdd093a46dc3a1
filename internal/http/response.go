package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/state"
)

type errorBody struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id,omitempty"`
}

type operationJSON struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name,omitempty"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type filterJSON struct {
	Name string `json:"name"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type snapshotJSON struct {
	Screen             string            `json:"screen"`
	Filter             filterJSON        `json:"filter"`
	Operations         []operationJSON   `json:"operations"`
	TotalIncome        string            `json:"total_income"`
	TotalExpenses      string            `json:"total_expenses"`
	Balance            string            `json:"balance"`
	ExpensesByCategory map[string]string `json:"expenses_by_category"`
	IncomeByCategory   map[string]string `json:"income_by_category"`
	IncomeCategories   []string          `json:"income_categories"`
	ExpenseCategories  []string          `json:"expense_categories"`
}

func toOperationJSON(op core.Operation) operationJSON {
	return operationJSON{
		ID:          op.ID,
		Kind:        string(op.Kind),
		Name:        op.Name,
		Amount:      op.Amount.String(),
		AmountCents: op.Amount.Cents,
		Category:    op.Category,
		Date:        op.Date.ISO(),
	}
}

func toOperationsJSON(ops []core.Operation) []operationJSON {
	out := make([]operationJSON, 0, len(ops))
	for _, op := range ops {
		out = append(out, toOperationJSON(op))
	}
	return out
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

func toFilterJSON(f state.Filter) filterJSON {
	out := filterJSON{Name: f.Name}
	if !f.From.IsZero() {
		out.From = f.From.ISO()
	}
	if !f.To.IsZero() {
		out.To = f.To.ISO()
	}
	return out
}

func toSnapshotJSON(v state.View) snapshotJSON {
	snap := v.Snapshot
	return snapshotJSON{
		Screen:             string(v.Screen),
		Filter:             toFilterJSON(v.Filter),
		Operations:         toOperationsJSON(snap.Operations),
		TotalIncome:        snap.TotalIncome.String(),
		TotalExpenses:      snap.TotalExpenses.String(),
		Balance:            snap.Balance.String(),
		ExpensesByCategory: moneyMap(snap.ExpensesByCategory),
		IncomeByCategory:   moneyMap(snap.IncomeByCategory),
		IncomeCategories:   nonNil(snap.IncomeCategories),
		ExpenseCategories:  nonNil(snap.ExpenseCategories),
	}
}

func moneyMap(in map[string]core.Money) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.String()
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps an error's reason to an HTTP status.
func statusFor(err error) int {
	switch core.ReasonOf(err) {
	case core.ReasonValidation:
		return http.StatusUnprocessableEntity
	case core.ReasonNotFound:
		return http.StatusNotFound
	case core.ReasonConflict:
		return http.StatusConflict
	case core.ReasonUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Storage failures are logged and
// their detail is withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Error:     err.Error(),
		Reason:    string(core.ReasonOf(err)),
		RequestID: RequestIDFromContext(r.Context()),
	}
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.NewFields().WithError(err).ToSlice()...)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

const reasonBadRequest = "bad_request"

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error:     msg,
		Reason:    reasonBadRequest,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
