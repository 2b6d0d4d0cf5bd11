package forecast

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Typed errors below match them with errors.Is.
var (
	ErrDataUnavailable  = errors.New("market data unavailable")
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownColumn    = errors.New("unknown feature column")
	ErrModelInference   = errors.New("model inference failed")
	ErrInvalidHorizon   = errors.New("invalid forecast horizon")
)

// DataUnavailableError means no usable OHLCV exists for a symbol and period.
// Callers should skip or report the symbol.
type DataUnavailableError struct {
	Symbol string
	Period string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no data for %s (%s): %v", e.Symbol, e.Period, e.Err)
	}
	return fmt.Sprintf("no data for %s (%s)", e.Symbol, e.Period)
}

func (e *DataUnavailableError) Unwrap() error        { return e.Err }
func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// InsufficientDataError means there are no rows to build a window from.
type InsufficientDataError struct {
	Rows int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows", e.Rows)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// UnknownColumnError means a configured feature column is absent from the
// feature matrix. It indicates a model config / indicator engine mismatch.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown feature column %q", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// ModelInferenceError wraps a failed model call. The whole forecast is aborted.
type ModelInferenceError struct {
	Step int
	Err  error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference failed at step %d: %v", e.Step, e.Err)
}

func (e *ModelInferenceError) Unwrap() error        { return e.Err }
func (e *ModelInferenceError) Is(target error) bool { return target == ErrModelInference }
