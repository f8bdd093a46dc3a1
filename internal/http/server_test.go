package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/state"
	"fintrack/internal/storage"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Format: applog.FormatText, Output: io.Discard, Component: applog.ComponentHTTP})
}

func newTestServer(t *testing.T, perMinute int) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	m := metrics.New()
	svc := services.NewFinanceService(repo, nil, m)
	holder := state.NewHolder(svc, state.WithClock(func() time.Time { return testNow }))
	require.NoError(t, holder.Load(context.Background()))

	srv := NewServer(holder, svc, Options{
		Addr:               ":0",
		RateLimitPerMinute: perMinute,
		Logger:             testLogger(),
		Metrics:            m,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReady_StoreUnavailable(t *testing.T) {
	svc := services.NewFinanceService(nil, nil, nil)
	holder := state.NewHolder(svc)
	srv := NewServer(holder, svc, Options{Logger: testLogger()})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode[errorBody](t, rec).Reason)
}

func TestCreateOperation_UpdatesSnapshot(t *testing.T) {
	srv := newTestServer(t, 60)

	rec := do(t, srv, http.MethodPost, "/api/operations",
		`{"kind":"expense","name":"Groceries","amount":"500.00","category":"Food","date":"10.03.2024"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[operationJSON](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, "2024-03-10", created.Date)
	assert.Equal(t, int64(50000), created.AmountCents)

	rec = do(t, srv, http.MethodPost, "/api/operations",
		`{"kind":"income","amount":2000,"category":"Salary","date":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[snapshotJSON](t, rec)
	assert.Equal(t, "2000.00", snap.TotalIncome)
	assert.Equal(t, "500.00", snap.TotalExpenses)
	assert.Equal(t, "1500.00", snap.Balance)
	assert.Equal(t, map[string]string{"Food": "500.00"}, snap.ExpensesByCategory)
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, "2024-03-10", snap.Operations[0].Date)
	assert.Equal(t, "expense", snap.Operations[0].Kind)
	for i := 1; i < len(snap.Operations); i++ {
		assert.GreaterOrEqual(t, snap.Operations[i-1].Date, snap.Operations[i].Date)
	}
}

func TestCreateOperation_Errors(t *testing.T) {
	srv := newTestServer(t, 100)

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"malformed json", `{"kind":`, http.StatusBadRequest, reasonBadRequest},
		{"unknown field", `{"kind":"expense","amount":"1","category":"Food","date":"2024-01-01","x":1}`, http.StatusBadRequest, reasonBadRequest},
		{"bad kind", `{"kind":"loan","amount":"1","category":"Food","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "validation"},
		{"negative amount", `{"kind":"expense","amount":"-1","category":"Food","date":"2024-01-01"}`, http.StatusUnprocessableEntity, "validation"},
		{"bad date", `{"kind":"expense","amount":"1","category":"Food","date":"31/31/2024"}`, http.StatusUnprocessableEntity, "validation"},
		{"unknown category", `{"kind":"expense","amount":"1","category":"Yachts","date":"2024-01-01"}`, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/operations", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.reason, body.Reason)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestUpdateAndDeleteOperation(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := do(t, srv, http.MethodPost, "/api/operations",
		`{"kind":"expense","name":"Bus","amount":"2.50","category":"Transport","date":"2024-03-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[operationJSON](t, rec)
	path := "/api/operations/expense/" + strconv.FormatInt(created.ID, 10)

	rec = do(t, srv, http.MethodPut, path,
		`{"name":"Train","amount":"12.00","category":"Transport","date":"2024-03-03"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[operationJSON](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "12.00", updated.Amount)

	rec = do(t, srv, http.MethodGet, "/api/operations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Operations []operationJSON `json:"operations"`
	}](t, rec)
	require.Len(t, list.Operations, 1)
	assert.Equal(t, "Train", list.Operations[0].Name)

	rec = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/operations/expense/abc",
		`{"amount":"1","category":"Food","date":"2024-03-03"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSnapshot_Filters(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, body := range []string{
		`{"kind":"expense","amount":"10","category":"Food","date":"2024-03-15"}`,
		`{"kind":"expense","amount":"20","category":"Food","date":"2024-03-01"}`,
		`{"kind":"expense","amount":"40","category":"Food","date":"2023-12-31"}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/operations", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodGet, "/api/snapshot?filter=month&screen=summary", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[snapshotJSON](t, rec)
	assert.Equal(t, "summary", snap.Screen)
	assert.Equal(t, "month", snap.Filter.Name)
	assert.Equal(t, "30.00", snap.TotalExpenses)

	rec = do(t, srv, http.MethodGet, "/api/snapshot?from=2023-12-01&to=2023-12-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decode[snapshotJSON](t, rec)
	assert.Equal(t, "custom", snap.Filter.Name)
	assert.Equal(t, "40.00", snap.TotalExpenses)

	rec = do(t, srv, http.MethodGet, "/api/snapshot?from=2024-02-01&to=2024-01-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/snapshot?screen=charts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilteredReadsDoNotLeakBetweenRequests(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, body := range []string{
		`{"kind":"expense","amount":"10","category":"Food","date":"2024-03-15"}`,
		`{"kind":"expense","amount":"40","category":"Food","date":"2023-12-31"}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/operations", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodGet, "/api/operations?filter=today&screen=summary", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[snapshotJSON](t, rec)
	assert.Equal(t, "all", snap.Filter.Name)
	assert.Equal(t, "operations", snap.Screen)
	assert.Equal(t, "50.00", snap.TotalExpenses)
}

func TestSetView(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, body := range []string{
		`{"kind":"expense","amount":"10","category":"Food","date":"2024-03-15"}`,
		`{"kind":"expense","amount":"40","category":"Food","date":"2023-12-31"}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/operations", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodPut, "/api/view", `{"screen":"summary","from":"2023-12-01","to":"2023-12-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[snapshotJSON](t, rec)
	assert.Equal(t, "custom", snap.Filter.Name)
	assert.Equal(t, "summary", snap.Screen)
	assert.Equal(t, "40.00", snap.TotalExpenses)

	// A rejected range keeps the committed view.
	rec = do(t, srv, http.MethodPut, "/api/view", `{"from":"2024-02-01","to":"2024-01-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = do(t, srv, http.MethodPut, "/api/view", `{"screen":"charts","filter":"all"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/snapshot", "")
	snap = decode[snapshotJSON](t, rec)
	assert.Equal(t, "custom", snap.Filter.Name)
	assert.Equal(t, "summary", snap.Screen)
	assert.Equal(t, "40.00", snap.TotalExpenses)

	rec = do(t, srv, http.MethodPut, "/api/view", `{"filter":"month"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "10.00", decode[snapshotJSON](t, rec).TotalExpenses)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Books","kind":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Books", decode[categoryJSON](t, rec).Name)

	rec = do(t, srv, http.MethodPost, "/api/categories", `{"name":"books","kind":"expense"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/categories?kind=expense", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec)["expense"], "Books")

	rec = do(t, srv, http.MethodPost, "/api/operations",
		`{"kind":"expense","amount":"5","category":"Books","date":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/categories/expense/Books", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/categories/expense/Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/categories/income/Gift", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/categories", "")
	all := decode[map[string][]string](t, rec)
	assert.NotContains(t, all["income"], "Gift")
	assert.Contains(t, all["income"], "Salary")
}

func TestRateLimit_MutationsOnly(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := do(t, srv, http.MethodPost, "/api/categories", `{"name":"","kind":"expense"}`)
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}
	rec := do(t, srv, http.MethodPost, "/api/categories", `{"name":"","kind":"expense"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = do(t, srv, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, 60)

	const id = "3f1c2b8e-9d4a-4c3e-8f2a-1b2c3d4e5f60"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid", rec.Header().Get(requestIDHeader))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 60)

	do(t, srv, http.MethodGet, "/api/snapshot", "")
	do(t, srv, http.MethodGet, "/nowhere", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `route="GET /api/snapshot"`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, "fintrack_snapshot_rebuild_seconds")
}
