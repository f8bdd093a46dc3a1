package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 64 << 10

// amountField accepts an amount as a JSON string ("12,50") or number (12.5)
// and keeps the literal text for exact decimal parsing.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number")
	}
	*a = amountField(n.String())
	return nil
}

type operationRequest struct {
	Kind     string      `json:"kind"`
	Name     string      `json:"name"`
	Amount   amountField `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// toOperation validates the request fields. kind overrides the body's kind
// when non-empty.
func (req operationRequest) toOperation(kind core.Kind) (core.Operation, error) {
	if kind == "" {
		k, err := core.ParseKind(req.Kind)
		if err != nil {
			return core.Operation{}, err
		}
		kind = k
	}

	amount, err := core.ParseMoney(string(req.Amount))
	if err != nil {
		return core.Operation{}, err
	}

	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Operation{}, err
	}

	op := core.Operation{
		Kind:     kind,
		Name:     sanitizeInput(req.Name),
		Amount:   amount,
		Category: sanitizeInput(req.Category),
		Date:     date,
	}
	if err := op.Validate(); err != nil {
		return core.Operation{}, err
	}
	return op, nil
}

func pathKind(r *http.Request) (core.Kind, error) {
	return core.ParseKind(r.PathValue("kind"))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidID, r.PathValue("id"))
	}
	return id, nil
}

// optionalDate parses an optional date; empty yields the zero date.
func optionalDate(v string) (core.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}
