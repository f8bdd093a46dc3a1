package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

// CategoryStore is the category half of the persistence layer.
type CategoryStore interface {
	AddCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error)
	DeleteCategoryByName(ctx context.Context, kind core.Kind, name string) error
	ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
	CategoryIDByName(ctx context.Context, kind core.Kind, name string) (int64, error)
}

// TransactionStore is the transaction half of the persistence layer.
type TransactionStore interface {
	AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, op core.Operation) error
	DeleteTransaction(ctx context.Context, kind core.Kind, id int64) error
	ListTransactions(ctx context.Context, kind core.Kind) ([]core.Operation, error)
}

type Store interface {
	CategoryStore
	TransactionStore
	Ping(ctx context.Context) error
}

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mock_services fintrack/internal/services EventPublisher

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}

// FinanceService is the single entry point the CLI, the state holder and
// the HTTP API use to read and change the books. A nil store makes every
// call fail with core.ErrStorageUnavailable.
type FinanceService struct {
	store     Store
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func NewFinanceService(store Store, publisher EventPublisher, m *metrics.Metrics) *FinanceService {
	return &FinanceService{
		store:     store,
		publisher: publisher,
		metrics:   m,
	}
}

// Ready reports whether the store can serve requests.
func (s *FinanceService) Ready(ctx context.Context) error {
	if s.store == nil {
		return core.ErrStorageUnavailable
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// AllOperations returns every income and expense, newest date first.
func (s *FinanceService) AllOperations(ctx context.Context) ([]core.Operation, error) {
	if s.store == nil {
		return nil, core.ErrStorageUnavailable
	}

	var all []core.Operation
	for _, kind := range core.Kinds() {
		ops, err := s.store.ListTransactions(ctx, kind)
		s.metrics.ObserveStore("list_operations", kind, err)
		if err != nil {
			return nil, err
		}
		all = append(all, ops...)
	}

	core.SortOperations(all)
	return all, nil
}

// Operations returns the operations dated within [from, to]. A zero bound
// leaves that side open.
func (s *FinanceService) Operations(ctx context.Context, from, to core.Date) ([]core.Operation, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	all, err := s.AllOperations(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterOperations(all, from, to), nil
}

// AddOperation stores op under the category named op.Category and returns
// it with the assigned id.
func (s *FinanceService) AddOperation(ctx context.Context, op core.Operation) (core.Operation, error) {
	if s.store == nil {
		return core.Operation{}, core.ErrStorageUnavailable
	}
	if err := op.Validate(); err != nil {
		return core.Operation{}, err
	}

	id, err := s.addOperation(ctx, op)
	s.metrics.ObserveStore("add_operation", op.Kind, err)
	if err != nil {
		return core.Operation{}, err
	}

	op.ID = id
	s.publish(ctx, amqp.NewOperationEvent(amqp.OperationCreated, op))
	return op, nil
}

func (s *FinanceService) addOperation(ctx context.Context, op core.Operation) (int64, error) {
	categoryID, err := s.store.CategoryIDByName(ctx, op.Kind, op.Category)
	if err != nil {
		return 0, err
	}
	return s.store.AddTransaction(ctx, core.Transaction{
		Kind:       op.Kind,
		Name:       op.Name,
		Amount:     op.Amount,
		CategoryID: categoryID,
		Date:       op.Date,
	})
}

// UpdateOperation overwrites the operation identified by op.Kind and op.ID.
func (s *FinanceService) UpdateOperation(ctx context.Context, op core.Operation) error {
	if s.store == nil {
		return core.ErrStorageUnavailable
	}

	err := s.store.UpdateTransaction(ctx, op)
	s.metrics.ObserveStore("update_operation", op.Kind, err)
	if err != nil {
		return err
	}

	s.publish(ctx, amqp.NewOperationEvent(amqp.OperationUpdated, op))
	return nil
}

func (s *FinanceService) DeleteOperation(ctx context.Context, id int64, kind core.Kind) error {
	if s.store == nil {
		return core.ErrStorageUnavailable
	}

	err := s.store.DeleteTransaction(ctx, kind, id)
	s.metrics.ObserveStore("delete_operation", kind, err)
	if err != nil {
		return err
	}

	s.publish(ctx, amqp.NewOperationEvent(amqp.OperationDeleted, core.Operation{ID: id, Kind: kind}))
	return nil
}

func (s *FinanceService) AddCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error) {
	if s.store == nil {
		return core.Category{}, core.ErrStorageUnavailable
	}

	c, err := s.store.AddCategory(ctx, kind, name)
	s.metrics.ObserveStore("add_category", kind, err)
	if err != nil {
		return core.Category{}, err
	}

	s.publish(ctx, amqp.NewCategoryEvent(amqp.CategoryCreated, c))
	return c, nil
}

// DeleteCategory removes the category by name. It fails with
// core.ErrCategoryInUse while transactions still reference it.
func (s *FinanceService) DeleteCategory(ctx context.Context, name string, kind core.Kind) error {
	if s.store == nil {
		return core.ErrStorageUnavailable
	}

	err := s.store.DeleteCategoryByName(ctx, kind, name)
	s.metrics.ObserveStore("delete_category", kind, err)
	if err != nil {
		return err
	}

	s.publish(ctx, amqp.NewCategoryEvent(amqp.CategoryDeleted, core.Category{Kind: kind, Name: name}))
	return nil
}

// Categories lists the kind's categories alphabetically.
func (s *FinanceService) Categories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	if s.store == nil {
		return nil, core.ErrStorageUnavailable
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	cats, err := s.store.ListCategories(ctx, kind)
	s.metrics.ObserveStore("list_categories", kind, err)
	return cats, err
}

// Snapshot re-reads everything and recomputes the aggregates over the
// operations dated within [from, to].
func (s *FinanceService) Snapshot(ctx context.Context, from, to core.Date) (core.Snapshot, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSnapshot(time.Since(start)) }()

	ops, err := s.Operations(ctx, from, to)
	if err != nil {
		return core.Snapshot{}, err
	}

	snap := core.Summarize(ops)
	for _, kind := range core.Kinds() {
		cats, err := s.Categories(ctx, kind)
		if err != nil {
			return core.Snapshot{}, err
		}
		names := categoryNames(cats)
		if kind == core.Income {
			snap.IncomeCategories = names
		} else {
			snap.ExpenseCategories = names
		}
	}

	slog.DebugContext(ctx, "Snapshot rebuilt",
		"operations", len(snap.Operations),
		"balance_cents", snap.Balance.Cents,
		"elapsed", time.Since(start))

	return snap, nil
}

func (s *FinanceService) publish(ctx context.Context, ev *amqp.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		// The mutation is committed; a lost event is only logged.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"type", ev.Type,
			"kind", ev.Kind,
			"id", ev.ID,
			"error", err)
	}
}

func checkRange(from, to core.Date) error {
	if !from.IsZero() && !to.IsZero() && from.Compare(to) > 0 {
		return fmt.Errorf("%w: %s is after %s", core.ErrInvalidRange, from.ISO(), to.ISO())
	}
	return nil
}

func categoryNames(cats []core.Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}
