package climate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports an out-of-range or malformed input value.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownEnumValue reports an unrecognized categorical input or a
	// missing calibration entry for it.
	ErrUnknownEnumValue = errors.New("unknown enum value")

	// ErrUnknownBoundary reports an unsupported system boundary.
	ErrUnknownBoundary = errors.New("unknown system boundary")

	// ErrInvalidTables reports calibration data that violates a table invariant.
	ErrInvalidTables = errors.New("invalid reference tables")
)

// ParameterError names the input field that failed validation.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrInvalidParameter, e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidParameter.
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// EnumError names the categorical input that was not recognized.
type EnumError struct {
	Kind  string
	Value any

	sentinel error
}

func newEnumError(kind string, value any) *EnumError {
	return &EnumError{Kind: kind, Value: value, sentinel: ErrUnknownEnumValue}
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Unwrap(), e.Kind, fmt.Sprint(e.Value))
}

// Unwrap returns ErrUnknownBoundary for boundaries and ErrUnknownEnumValue otherwise.
func (e *EnumError) Unwrap() error {
	if e.sentinel == nil {
		return ErrUnknownEnumValue
	}
	return e.sentinel
}

func invalidParam(field string, value any, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}

func invalidTables(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTables, fmt.Sprintf(format, args...))
}
