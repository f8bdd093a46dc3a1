package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the parameterized statements for both namespaces. Table
// names come from the fixed kind set, never from input.
type Queries struct {
	db DBTX
}

type statements struct {
	createCategory    string
	deleteCategory    string
	listCategories    string
	categoryIDByName  string
	categoryExists    string
	createTransaction string
	updateTransaction string
	deleteTransaction string
	listTransactions  string
	maxTransactionID  string
}

var kindStatements = map[core.Kind]statements{
	core.Income:  newStatements("income_categories", "income_transactions"),
	core.Expense: newStatements("expense_categories", "expense_transactions"),
}

func newStatements(categories, transactions string) statements {
	return statements{
		createCategory:   fmt.Sprintf(`INSERT INTO %s (name) VALUES (?)`, categories),
		deleteCategory:   fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, categories),
		listCategories:   fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name ASC`, categories),
		categoryIDByName: fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, categories),
		categoryExists:   fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)`, categories),
		createTransaction: fmt.Sprintf(
			`INSERT INTO %s (name, amount_cents, category_id, date) VALUES (?, ?, ?, ?)`, transactions),
		updateTransaction: fmt.Sprintf(
			`UPDATE %s SET name = ?, amount_cents = ?, category_id = ?, date = ? WHERE id = ?`, transactions),
		deleteTransaction: fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, transactions),
		listTransactions: fmt.Sprintf(`SELECT t.id, t.name, t.amount_cents, t.category_id, c.name, t.date
FROM %s t
INNER JOIN %s c ON c.id = t.category_id
ORDER BY t.date DESC, t.id DESC`, transactions, categories),
		maxTransactionID: fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) FROM %s`, transactions),
	}
}

func stmts(kind core.Kind) (statements, error) {
	s, ok := kindStatements[kind]
	if !ok {
		return statements{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, string(kind))
	}
	return s, nil
}

type CategoryRow struct {
	ID   int64
	Name string
}

type TransactionRow struct {
	ID           int64
	Name         sql.NullString
	AmountCents  int64
	CategoryID   int64
	CategoryName string
	Date         string
}

type CreateTransactionParams struct {
	Name        sql.NullString
	AmountCents int64
	CategoryID  int64
	Date        string
}

type UpdateTransactionParams struct {
	ID          int64
	Name        sql.NullString
	AmountCents int64
	CategoryID  int64
	Date        string
}

func (q *Queries) CreateCategory(ctx context.Context, kind core.Kind, name string) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, s.createCategory, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) DeleteCategory(ctx context.Context, kind core.Kind, id int64) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, s.deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListCategories(ctx context.Context, kind core.Kind) ([]CategoryRow, error) {
	s, err := stmts(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, s.listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) GetCategoryIDByName(ctx context.Context, kind core.Kind, name string) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	err = q.db.QueryRowContext(ctx, s.categoryIDByName, name).Scan(&id)
	return id, err
}

func (q *Queries) CategoryExists(ctx context.Context, kind core.Kind, id int64) (bool, error) {
	s, err := stmts(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	err = q.db.QueryRowContext(ctx, s.categoryExists, id).Scan(&exists)
	return exists, err
}

func (q *Queries) CreateTransaction(ctx context.Context, kind core.Kind, arg CreateTransactionParams) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, s.createTransaction, arg.Name, arg.AmountCents, arg.CategoryID, arg.Date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateTransaction(ctx context.Context, kind core.Kind, arg UpdateTransactionParams) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, s.updateTransaction, arg.Name, arg.AmountCents, arg.CategoryID, arg.Date, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransaction(ctx context.Context, kind core.Kind, id int64) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, s.deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListTransactions(ctx context.Context, kind core.Kind) ([]TransactionRow, error) {
	s, err := stmts(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, s.listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Name, &i.AmountCents, &i.CategoryID, &i.CategoryName, &i.Date); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) GetMaxTransactionID(ctx context.Context, kind core.Kind) (int64, error) {
	s, err := stmts(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	err = q.db.QueryRowContext(ctx, s.maxTransactionID).Scan(&id)
	return id, err
}
