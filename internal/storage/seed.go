package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

var (
	DefaultIncomeCategories  = []string{"Salary", "Stipend", "Freelance", "Investments", "Gift"}
	DefaultExpenseCategories = []string{"Food", "Transport", "Housing", "Entertainment", "Education", "Health", "Clothing", "Utilities"}
)

// SeedDefaults inserts the default categories of both kinds, skipping names
// that already exist in any letter case, and returns how many it inserted.
func (r *SQLiteRepository) SeedDefaults(ctx context.Context) (int, error) {
	defaults := map[core.Kind][]string{
		core.Income:  DefaultIncomeCategories,
		core.Expense: DefaultExpenseCategories,
	}

	seeded := 0
	for _, kind := range core.Kinds() {
		for _, name := range defaults[kind] {
			_, err := r.CategoryIDByName(ctx, kind, name)
			if err == nil {
				slog.DebugContext(ctx, "Default category already exists", "kind", kind, "name", name)
				continue
			}
			if !errors.Is(err, core.ErrCategoryNotFound) {
				return seeded, fmt.Errorf("seed %s category %q: %w", kind, name, err)
			}
			if _, err := r.AddCategory(ctx, kind, name); err != nil {
				if errors.Is(err, core.ErrDuplicateCategory) {
					continue
				}
				return seeded, fmt.Errorf("seed %s category %q: %w", kind, name, err)
			}
			seeded++
		}
	}

	slog.InfoContext(ctx, "Default categories seeded", "count", seeded)
	return seeded, nil
}
