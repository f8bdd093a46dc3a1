package core

import "errors"

// Reason classifies a failure for callers that report it (CLI, HTTP, logs).
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonValidation  Reason = "validation"
	ReasonNotFound    Reason = "not_found"
	ReasonConflict    Reason = "conflict"
	ReasonUnavailable Reason = "unavailable"
	ReasonStorage     Reason = "storage"
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrCategoryInUse       = errors.New("category is referenced by transactions")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrEmptyName, ReasonValidation},
	{ErrInvalidName, ReasonValidation},
	{ErrInvalidAmount, ReasonValidation},
	{ErrInvalidID, ReasonValidation},
	{ErrInvalidDate, ReasonValidation},
	{ErrInvalidKind, ReasonValidation},
	{ErrInvalidRange, ReasonValidation},
	{ErrCategoryNotFound, ReasonNotFound},
	{ErrTransactionNotFound, ReasonNotFound},
	{ErrDuplicateCategory, ReasonConflict},
	{ErrCategoryInUse, ReasonConflict},
	{ErrStorageUnavailable, ReasonUnavailable},
}

// ReasonOf maps an error chain to its Reason. Unknown errors are storage failures.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonStorage
}
