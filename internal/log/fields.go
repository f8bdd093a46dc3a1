package log

import "fintrack/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldReason      = "reason"
	FieldOperation   = "operation"
	FieldKind        = "kind"
	FieldID          = "id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldDate        = "date"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
	ComponentCLI       = "cli"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text and its classification.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldReason] = string(core.ReasonOf(err))
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the fields identifying a single income or expense.
func (f LogFields) WithEntry(op core.Operation) LogFields {
	f[FieldKind] = string(op.Kind)
	if op.ID > 0 {
		f[FieldID] = op.ID
	}
	if op.Category != "" {
		f[FieldCategory] = op.Category
	}
	if op.Amount.Cents > 0 {
		f[FieldAmountCents] = op.Amount.Cents
	}
	if !op.Date.IsZero() {
		f[FieldDate] = op.Date.ISO()
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
