package importing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolhub/core"
)

var (
	// accepted date conventions: ISO and US
	dateLayouts  = []string{"2006-01-02", "01/02/2006"}
	clockLayouts = []string{"15:04", "15:04:05"}
)

// RowError rejects a single row.
type RowError struct {
	Field   string
	Message string
}

func (e *RowError) Error() string {
	return e.Message
}

// RowReader reads typed values out of a RawRow.
// The first failure sticks: later reads return zero values and never replace the error.
type RowReader struct {
	row      RawRow
	validate *validator.Validate
	err      *RowError
}

func NewRowReader(row RawRow, validate *validator.Validate) *RowReader {
	return &RowReader{row: row, validate: validate}
}

func (r *RowReader) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

func (r *RowReader) Failed() bool {
	return r.err != nil
}

// Fail rejects the row unless it already failed.
func (r *RowReader) Fail(field, format string, args ...interface{}) {
	if r.err == nil {
		r.err = &RowError{Field: field, Message: fmt.Sprintf(format, args...)}
	}
}

// String returns the trimmed value of `field`.
func (r *RowReader) String(field string) string {
	return core.CleanString(r.row.Get(field))
}

func (r *RowReader) Optional(field string) null.String {
	if v := r.String(field); v != "" {
		return null.StringFrom(v)
	}
	return null.String{}
}

// Enum matches `field` case-insensitively against `allowed` and returns it lower-cased.
// A blank value is returned as is.
func (r *RowReader) Enum(field string, allowed ...string) string {
	raw := r.String(field)
	if raw == "" || r.Failed() {
		return ""
	}
	v := strings.ToLower(raw)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	r.Fail(field, "Invalid %s '%s'. Must be one of: %s", field, raw, strings.Join(allowed, ", "))
	return ""
}

func (r *RowReader) Email(field string) null.String {
	v := core.CleanString(r.row.Get(field), true /* lower */)
	if v == "" || r.Failed() {
		return null.String{}
	}
	if err := r.validate.Var(v, "email"); err != nil {
		r.Fail(field, "Invalid email format for %s: %s", field, v)
		return null.String{}
	}
	return null.StringFrom(v)
}

// Date parses YYYY-MM-DD or MM/DD/YYYY into a UTC midnight. A blank value reads as the zero time.
func (r *RowReader) Date(field string) time.Time {
	v := r.String(field)
	if v == "" || r.Failed() {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t
		}
	}
	r.Fail(field, "Invalid date for %s '%s'. Expected YYYY-MM-DD or MM/DD/YYYY", field, v)
	return time.Time{}
}

// Clock parses a time of day (HH:MM[:SS]) on `day`, or a full RFC3339 timestamp.
func (r *RowReader) Clock(field string, day time.Time) null.Time {
	v := r.String(field)
	if v == "" || r.Failed() {
		return null.Time{}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := day.Date()
			return null.TimeFrom(time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC))
		}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return null.TimeFrom(t.UTC())
	}
	r.Fail(field, "Invalid time for %s '%s'. Expected HH:MM", field, v)
	return null.Time{}
}

// Decimal parses a strictly positive number.
func (r *RowReader) Decimal(field string) decimal.Decimal {
	v := r.String(field)
	if v == "" || r.Failed() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		r.Fail(field, "Invalid %s '%s'. Must be a positive number", field, v)
		return decimal.Zero
	}
	return d
}

// Int parses a non-negative integer.
func (r *RowReader) Int(field string) int {
	v := r.String(field)
	if v == "" || r.Failed() {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.Fail(field, "Invalid %s '%s'. Must be a non-negative integer", field, v)
		return 0
	}
	return n
}

// List splits a comma separated value. With `nonEmpty`, a list without entries fails the row.
func (r *RowReader) List(field string, nonEmpty bool) []string {
	list := core.SplitList(r.row.Get(field))
	if nonEmpty && len(list) == 0 {
		r.Fail(field, "%s must contain at least one entry", field)
	}
	return list
}
