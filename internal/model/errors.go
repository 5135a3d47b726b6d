package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientAvailableError rejects a withdrawal that exceeds the amount
// available at the time of the check. Available is carried so callers can
// show the ceiling and let the user retry with a corrected value.
type InsufficientAvailableError struct {
	Available decimal.Decimal
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("amount exceeds available (%s %s)", e.Available.StringFixed(2), DefaultCurrency)
}
