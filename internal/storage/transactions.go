package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// AddTransaction inserts tx in its kind's table and returns the generated id.
// The category is checked explicitly before the insert.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	exists, err := r.queries.CategoryExists(ctx, tx.Kind, tx.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("check %s category %d: %w", tx.Kind, tx.CategoryID, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s category %d", core.ErrCategoryNotFound, tx.Kind, tx.CategoryID)
	}

	id, err := r.queries.CreateTransaction(ctx, tx.Kind, CreateTransactionParams{
		Name:        nullString(tx.Name),
		AmountCents: tx.Amount.Cents,
		CategoryID:  tx.CategoryID,
		Date:        tx.Date.ISO(),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %s category %d", core.ErrCategoryNotFound, tx.Kind, tx.CategoryID)
		}
		return 0, fmt.Errorf("create %s transaction: %w", tx.Kind, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"category_id", tx.CategoryID,
		"date", tx.Date.ISO())

	return id, nil
}

// UpdateTransaction overwrites name, amount, category and date of the row
// identified by op.Kind and op.ID. op.Category is resolved by name first.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, op core.Operation) error {
	if op.ID <= 0 {
		return fmt.Errorf("%w: transaction id %d", core.ErrInvalidID, op.ID)
	}
	if err := op.Validate(); err != nil {
		return err
	}

	categoryID, err := r.CategoryIDByName(ctx, op.Kind, op.Category)
	if err != nil {
		return err
	}

	n, err := r.queries.UpdateTransaction(ctx, op.Kind, UpdateTransactionParams{
		ID:          op.ID,
		Name:        nullString(op.Name),
		AmountCents: op.Amount.Cents,
		CategoryID:  categoryID,
		Date:        op.Date.ISO(),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s category %q", core.ErrCategoryNotFound, op.Kind, op.Category)
		}
		return fmt.Errorf("update %s transaction %d: %w", op.Kind, op.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s transaction %d", core.ErrTransactionNotFound, op.Kind, op.ID)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", op.ID, "kind", op.Kind, "amount_cents", op.Amount.Cents)
	return nil
}

// DeleteTransaction removes the row with the given id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, kind core.Kind, id int64) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%w: transaction id %d", core.ErrInvalidID, id)
	}

	n, err := r.queries.DeleteTransaction(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s transaction %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s transaction %d", core.ErrTransactionNotFound, kind, id)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "kind", kind)
	return nil
}

// ListTransactions returns the kind's rows joined with their category name,
// newest date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Operation, error) {
	rows, err := r.queries.ListTransactions(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", kind, err)
	}

	ops := make([]core.Operation, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("%s transaction %d: %w", kind, row.ID, err)
		}
		ops = append(ops, core.Operation{
			ID:       row.ID,
			Kind:     kind,
			Name:     row.Name.String,
			Amount:   core.Money{Cents: row.AmountCents},
			Category: row.CategoryName,
			Date:     date,
		})
	}
	return ops, nil
}

// LastInsertedID returns the highest id in the kind's table. AddTransaction
// already returns the generated id; this is for callers that only need the
// current maximum.
func (r *SQLiteRepository) LastInsertedID(ctx context.Context, kind core.Kind) (int64, error) {
	id, err := r.queries.GetMaxTransactionID(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("max %s transaction id: %w", kind, err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
