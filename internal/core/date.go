package core

import (
	"fmt"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// inputLayouts are tried in order; ISO is the storage format, the others are
// accepted from user input and normalized.
var inputLayouts = []string{
	isoLayout,
	"02.01.2006",
	"02-01-2006",
	"2.1.2006",
	"2-1-2006",
}

// ParseDate parses YYYY-MM-DD, DD.MM.YYYY or DD-MM-YYYY into a Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q (want YYYY-MM-DD, DD.MM.YYYY or DD-MM-YYYY)", ErrInvalidDate, s)
}

// NormalizeDate returns the ISO form of any accepted input format.
func NormalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.ISO(), nil
}
