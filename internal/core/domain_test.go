package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"e", Expense, true},
		{"incomes", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("%q expected ErrInvalidKind, got %v", tc.in, err)
		}
	}
}

func TestValidateCategoryName(t *testing.T) {
	name, err := ValidateCategoryName("  Food  ")
	if err != nil || name != "Food" {
		t.Fatalf("expected trimmed name, got %q (err=%v)", name, err)
	}
	for _, bad := range []string{"", "   ", "\t"} {
		if _, err := ValidateCategoryName(bad); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("%q expected ErrEmptyName, got %v", bad, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:       Expense,
		Amount:     Money{Cents: 500},
		CategoryID: 1,
		Date:       NewDate(2024, 1, 10),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Kind: "x", Amount: Money{Cents: 1}, CategoryID: 1, Date: NewDate(2024, 1, 1)}, ErrInvalidKind},
		{Transaction{Kind: Income, Amount: Money{Cents: 0}, CategoryID: 1, Date: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{Transaction{Kind: Income, Amount: Money{Cents: -5}, CategoryID: 1, Date: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, CategoryID: 0, Date: NewDate(2024, 1, 1)}, ErrInvalidID},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, CategoryID: 1}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestOperationInRange(t *testing.T) {
	op := Operation{Date: NewDate(2024, 1, 10)}
	cases := []struct {
		from, to Date
		want     bool
	}{
		{NewDate(2024, 1, 10), NewDate(2024, 1, 10), true},
		{NewDate(2024, 1, 1), NewDate(2024, 1, 31), true},
		{NewDate(2024, 1, 11), NewDate(2024, 1, 31), false},
		{NewDate(2024, 1, 1), NewDate(2024, 1, 9), false},
		{Date{}, NewDate(2024, 1, 10), true},
		{NewDate(2024, 1, 10), Date{}, true},
		{Date{}, Date{}, true},
	}
	for i, tc := range cases {
		if got := op.InRange(tc.from, tc.to); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}
