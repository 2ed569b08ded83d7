package validation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent matches every structural validation failure.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrZeroTimestamp is the cause when a payload carries the zero time.
	ErrZeroTimestamp = errors.New("zero time")
)

// MissingFieldError reports an absent required key.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrInvalidEvent }

// InvalidTimestampError reports a timestamp that is not ISO-8601.
type InvalidTimestampError struct {
	Value any
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %v: not ISO-8601", e.Value)
}

func (e *InvalidTimestampError) Unwrap() error { return e.Err }

func (e *InvalidTimestampError) Is(target error) bool { return target == ErrInvalidEvent }

// FieldRangeError reports a numeric field outside its allowed range.
type FieldRangeError struct {
	Field    string
	Value    int
	Min, Max int
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("field %q value %d outside [%d,%d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *FieldRangeError) Is(target error) bool { return target == ErrInvalidEvent }

// FieldTypeError reports a value of the wrong type, e.g. text where a
// number is expected.
type FieldTypeError struct {
	Field string
	Want  string
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.Field, e.Want, e.Value)
}

func (e *FieldTypeError) Is(target error) bool { return target == ErrInvalidEvent }

// Reason returns a short label for err, suitable for metrics.
func Reason(err error) string {
	var (
		missing *MissingFieldError
		ts      *InvalidTimestampError
		rng     *FieldRangeError
		typ     *FieldTypeError
	)
	switch {
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &ts):
		return "invalid_timestamp"
	case errors.As(err, &rng):
		return "field_range"
	case errors.As(err, &typ):
		return "field_type"
	default:
		return "unknown"
	}
}
