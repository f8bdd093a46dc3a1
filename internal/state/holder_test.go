package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

var fixedNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func newTestHolder(t *testing.T) *Holder {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	h := NewHolder(services.NewFinanceService(repo, nil, nil), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, h.Load(context.Background()))
	return h
}

func op(kind core.Kind, name string, cents int64, category string, date core.Date) core.Operation {
	return core.Operation{Kind: kind, Name: name, Amount: core.Money{Cents: cents}, Category: category, Date: date}
}

func TestHolderInitialState(t *testing.T) {
	h := newTestHolder(t)

	v := h.State()
	assert.Equal(t, ScreenOperations, v.Screen)
	assert.Equal(t, FilterAll, v.Filter.Name)
	assert.Empty(t, v.Snapshot.Operations)
	assert.NotEmpty(t, v.Snapshot.ExpenseCategories)
	assert.NotEmpty(t, v.Snapshot.IncomeCategories)
}

func TestHolderResyncsAfterMutation(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)

	added, err := h.AddOperation(ctx, op(core.Expense, "Groceries", 50000, "Food", core.NewDate(2024, 6, 1)))
	require.NoError(t, err)
	_, err = h.AddOperation(ctx, op(core.Income, "June", 200000, "Salary", core.NewDate(2024, 6, 1)))
	require.NoError(t, err)

	snap := h.State().Snapshot
	assert.Len(t, snap.Operations, 2)
	assert.Equal(t, int64(150000), snap.Balance.Cents)

	added.Amount = core.Money{Cents: 70000}
	require.NoError(t, h.EditOperation(ctx, added))
	assert.Equal(t, int64(130000), h.State().Snapshot.Balance.Cents)

	require.NoError(t, h.DeleteOperation(ctx, added.ID, core.Expense))
	assert.Equal(t, int64(200000), h.State().Snapshot.Balance.Cents)
	assert.Empty(t, h.State().Snapshot.ExpensesByCategory)
}

func TestHolderCategoryIntents(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)

	_, err := h.AddCategory(ctx, "Pets", core.Expense)
	require.NoError(t, err)
	assert.Contains(t, h.State().Snapshot.ExpenseCategories, "Pets")

	_, err = h.AddCategory(ctx, "pets", core.Expense)
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	require.NoError(t, h.DeleteCategory(ctx, "Pets", core.Expense))
	assert.NotContains(t, h.State().Snapshot.ExpenseCategories, "Pets")
}

func TestHolderFilterScopesAggregates(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)

	_, err := h.AddOperation(ctx, op(core.Expense, "Old", 1000, "Food", core.NewDate(2023, 12, 31)))
	require.NoError(t, err)
	_, err = h.AddOperation(ctx, op(core.Expense, "Recent", 2500, "Food", core.NewDate(2024, 6, 18)))
	require.NoError(t, err)

	require.NoError(t, h.ApplyFilter(ctx, FilterWeek))
	v := h.State()
	assert.Equal(t, FilterWeek, v.Filter.Name)
	require.Len(t, v.Snapshot.Operations, 1)
	assert.Equal(t, "Recent", v.Snapshot.Operations[0].Name)
	assert.Equal(t, int64(2500), v.Snapshot.TotalExpenses.Cents)

	// The active filter survives a mutation.
	_, err = h.AddOperation(ctx, op(core.Expense, "Older", 400, "Food", core.NewDate(2022, 1, 1)))
	require.NoError(t, err)
	assert.Len(t, h.State().Snapshot.Operations, 1)

	require.NoError(t, h.ApplyRange(ctx, core.NewDate(2022, 1, 1), core.NewDate(2023, 12, 31)))
	assert.Equal(t, int64(1400), h.State().Snapshot.TotalExpenses.Cents)
}

func TestHolderPeekLeavesActiveView(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)

	_, err := h.AddOperation(ctx, op(core.Expense, "Old", 1000, "Food", core.NewDate(2023, 12, 31)))
	require.NoError(t, err)
	_, err = h.AddOperation(ctx, op(core.Expense, "Recent", 2500, "Food", core.NewDate(2024, 6, 18)))
	require.NoError(t, err)

	f, err := h.FilterNamed(FilterYear)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 1, 1), f.From)

	v, err := h.Peek(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, FilterYear, v.Filter.Name)
	assert.Equal(t, int64(2500), v.Snapshot.TotalExpenses.Cents)

	active := h.State()
	assert.Equal(t, FilterAll, active.Filter.Name)
	assert.Equal(t, int64(3500), active.Snapshot.TotalExpenses.Cents)
}

func TestHolderRejectedFilterKeepsState(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)
	require.NoError(t, h.ApplyFilter(ctx, FilterMonth))

	err := h.ApplyRange(ctx, core.NewDate(2024, 6, 2), core.NewDate(2024, 6, 1))
	assert.ErrorIs(t, err, core.ErrInvalidRange)
	assert.Equal(t, FilterMonth, h.State().Filter.Name)

	assert.Error(t, h.ApplyFilter(ctx, "fortnight"))
	assert.Equal(t, FilterMonth, h.State().Filter.Name)
}

func TestHolderNavigate(t *testing.T) {
	h := NewHolder(nil)
	h.Navigate(ScreenSummary)
	assert.Equal(t, ScreenSummary, h.State().Screen)

	s, err := ParseScreen(" Categories ")
	require.NoError(t, err)
	assert.Equal(t, ScreenCategories, s)

	_, err = ParseScreen("settings")
	assert.Error(t, err)
}

type failingService struct {
	Service
	err error
}

func (f failingService) Snapshot(context.Context, core.Date, core.Date) (core.Snapshot, error) {
	return core.Snapshot{}, f.err
}

func (f failingService) DeleteOperation(context.Context, int64, core.Kind) error {
	return f.err
}

func TestHolderFailedIntentKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newTestHolder(t)
	_, err := h.AddOperation(ctx, op(core.Income, "Gift", 5000, "Gift", core.NewDate(2024, 6, 1)))
	require.NoError(t, err)
	before := h.State()

	h.svc = failingService{err: core.ErrStorageUnavailable}

	err = h.DeleteOperation(ctx, 1, core.Income)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))
	assert.Equal(t, before, h.State())

	err = h.ApplyFilter(ctx, FilterYear)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.Equal(t, before, h.State())
}

func TestHolderRefreshSeesExternalWrites(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer repo.Close()

	svc := services.NewFinanceService(repo, nil, nil)
	h := NewHolder(svc)
	require.NoError(t, h.Load(ctx))

	_, err = svc.AddOperation(ctx, op(core.Expense, "Elsewhere", 900, "Food", core.NewDate(2024, 1, 1)))
	require.NoError(t, err)
	assert.Empty(t, h.State().Snapshot.Operations)

	require.NoError(t, h.Refresh(ctx))
	assert.Len(t, h.State().Snapshot.Operations, 1)
}
