package core

import (
	"cmp"
	"slices"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Snapshot is the derived, read-only view rebuilt after every mutation.
type Snapshot struct {
	Operations         []Operation
	TotalIncome        Money
	TotalExpenses      Money
	Balance            Money
	ExpensesByCategory map[string]Money
	IncomeByCategory   map[string]Money
	IncomeCategories   []string
	ExpenseCategories  []string
}

// Summarize computes totals and per-category sums over ops. Category name
// lists are left to the caller.
func Summarize(ops []Operation) Snapshot {
	s := Snapshot{
		Operations:         ops,
		ExpensesByCategory: make(map[string]Money),
		IncomeByCategory:   make(map[string]Money),
	}
	for _, op := range ops {
		switch op.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(op.Amount)
			s.IncomeByCategory[op.Category] = s.IncomeByCategory[op.Category].Add(op.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(op.Amount)
			s.ExpensesByCategory[op.Category] = s.ExpensesByCategory[op.Category].Add(op.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// Breakdown flattens a per-category map, largest amount first, ties by name.
func Breakdown(byCategory map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCategory))
	for name, amount := range byCategory {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// SortOperations orders ops by date descending. Equal dates keep their
// relative order.
func SortOperations(ops []Operation) {
	slices.SortStableFunc(ops, func(a, b Operation) int {
		return b.Date.Compare(a.Date)
	})
}

// FilterOperations returns the operations dated within [from, to].
func FilterOperations(ops []Operation, from, to Date) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if op.InRange(from, to) {
			out = append(out, op)
		}
	}
	return out
}
