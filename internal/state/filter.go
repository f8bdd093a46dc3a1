package state

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Named filters.
const (
	FilterAll    = "all"
	FilterToday  = "today"
	FilterWeek   = "week"
	FilterMonth  = "month"
	FilterYear   = "year"
	FilterCustom = "custom"
)

// Filter restricts the visible operations to [From, To]. Zero bounds are open.
type Filter struct {
	Name string
	From core.Date
	To   core.Date
}

func FilterNames() []string {
	return []string{FilterAll, FilterToday, FilterWeek, FilterMonth, FilterYear}
}

// NamedFilter resolves a filter name relative to now's calendar day.
func NamedFilter(name string, now time.Time) (Filter, error) {
	today := core.DateOf(now)
	y, m, _ := today.Date()

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FilterAll:
		return Filter{Name: FilterAll}, nil
	case FilterToday:
		return Filter{Name: FilterToday, From: today, To: today}, nil
	case FilterWeek:
		return Filter{Name: FilterWeek, From: core.DateOf(today.AddDate(0, 0, -6)), To: today}, nil
	case FilterMonth:
		first := core.NewDate(y, int(m), 1)
		return Filter{Name: FilterMonth, From: first, To: core.DateOf(first.AddDate(0, 1, -1))}, nil
	case FilterYear:
		return Filter{Name: FilterYear, From: core.NewDate(y, 1, 1), To: core.NewDate(y, 12, 31)}, nil
	}
	return Filter{}, fmt.Errorf("%w: unknown filter %q", core.ErrInvalidRange, name)
}

// RangeFilter builds a custom filter, rejecting from after to.
func RangeFilter(from, to core.Date) (Filter, error) {
	if !from.IsZero() && !to.IsZero() && from.Compare(to) > 0 {
		return Filter{}, fmt.Errorf("%w: %s is after %s", core.ErrInvalidRange, from.ISO(), to.ISO())
	}
	return Filter{Name: FilterCustom, From: from, To: to}, nil
}
