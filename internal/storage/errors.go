package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolation(err error) bool {
	return hasConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return hasConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

// hasConstraint matches the extended result code, falling back to the message
// when the driver reports only the primary SQLITE_CONSTRAINT code.
func hasConstraint(err error, code int, msg string) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code() == code {
			return true
		}
		if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	return strings.Contains(err.Error(), msg)
}
