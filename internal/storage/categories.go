package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// AddCategory inserts a category in the kind's namespace. Names are unique
// case-insensitively.
func (r *SQLiteRepository) AddCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error) {
	if err := kind.Validate(); err != nil {
		return core.Category{}, err
	}
	name, err := core.ValidateCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}

	id, err := r.queries.CreateCategory(ctx, kind, name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("%w: %s category %q", core.ErrDuplicateCategory, kind, name)
		}
		return core.Category{}, fmt.Errorf("create %s category: %w", kind, err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", id, "kind", kind, "name", name)
	return core.Category{ID: id, Name: name, Kind: kind}, nil
}

// DeleteCategory removes a category by id. Categories still referenced by
// transactions are rejected by the foreign key.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, kind core.Kind, id int64) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%w: category id %d", core.ErrInvalidID, id)
	}

	n, err := r.queries.DeleteCategory(ctx, kind, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s category %d", core.ErrCategoryInUse, kind, id)
		}
		return fmt.Errorf("delete %s category: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s category %d", core.ErrCategoryNotFound, kind, id)
	}

	slog.InfoContext(ctx, "Category deleted", "id", id, "kind", kind)
	return nil
}

// DeleteCategoryByName resolves name and deletes the category.
func (r *SQLiteRepository) DeleteCategoryByName(ctx context.Context, kind core.Kind, name string) error {
	id, err := r.CategoryIDByName(ctx, kind, name)
	if err != nil {
		return err
	}
	return r.DeleteCategory(ctx, kind, id)
}

// ListCategories returns the kind's categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}

	categories := make([]core.Category, len(rows))
	for i, row := range rows {
		categories[i] = core.Category{ID: row.ID, Name: row.Name, Kind: kind}
	}
	return categories, nil
}

// CategoryIDByName looks up a category id. Matching ignores case.
func (r *SQLiteRepository) CategoryIDByName(ctx context.Context, kind core.Kind, name string) (int64, error) {
	name, err := core.ValidateCategoryName(name)
	if err != nil {
		return 0, err
	}

	id, err := r.queries.GetCategoryIDByName(ctx, kind, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s category %q", core.ErrCategoryNotFound, kind, name)
	}
	if err != nil {
		return 0, fmt.Errorf("get %s category %q: %w", kind, name, err)
	}
	return id, nil
}
