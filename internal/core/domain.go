package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const maxNameLength = 200

type (
	// Kind partitions categories and transactions into two independent namespaces.
	Kind string

	Date struct {
		time.Time
	}

	Category struct {
		ID   int64
		Name string
		Kind Kind
	}

	// Transaction is a stored income or expense row. Name is optional.
	Transaction struct {
		ID         int64
		Kind       Kind
		Name       string
		Amount     Money
		CategoryID int64
		Date       Date
	}

	// Operation is the read view of a transaction with its category name resolved.
	Operation struct {
		ID       int64
		Kind     Kind
		Name     string
		Amount   Money
		Category string
		Date     Date
	}
)

// Kinds lists both namespaces in store order.
func Kinds() []Kind {
	return []Kind{Income, Expense}
}

// ParseKind accepts "income"/"expense" and their one-letter or plural forms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes", "i", "in":
		return Income, nil
	case "expense", "expenses", "e", "out":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) Validate() error {
	if k != Income && k != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}

func (k Kind) String() string {
	return string(k)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// ISO returns the storage representation YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(isoLayout)
}

func (d Date) String() string {
	return d.ISO()
}

// Compare orders dates by calendar day.
func (d Date) Compare(other Date) int {
	return d.Time.Compare(other.Time)
}

// ValidateCategoryName trims the name and rejects blank or oversized values.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: name too long (max %d characters)", ErrEmptyName, maxNameLength)
	}
	return name, nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return fmt.Errorf("%w: category id %d", ErrInvalidID, t.CategoryID)
	}
	if len(t.Name) > maxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidName, maxNameLength)
	}
	return t.Date.Validate()
}

// Validate checks an operation before its category is resolved.
func (o Operation) Validate() error {
	if err := o.Kind.Validate(); err != nil {
		return err
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrCategoryNotFound)
	}
	if len(o.Name) > maxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidName, maxNameLength)
	}
	return o.Date.Validate()
}

// InRange reports whether the operation date lies within [from, to].
// A zero bound is open.
func (o Operation) InRange(from, to Date) bool {
	if !from.IsZero() && o.Date.Before(from.Time) {
		return false
	}
	if !to.IsZero() && o.Date.After(to.Time) {
		return false
	}
	return true
}
