package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-10", "2024-01-10", true},
		{"10.01.2024", "2024-01-10", true},
		{"10-01-2024", "2024-01-10", true},
		{"5.3.2024", "2024-03-05", true},
		{" 2024-12-31 ", "2024-12-31", true},
		{"2024-02-30", "", false},
		{"31/12/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeDate(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}
