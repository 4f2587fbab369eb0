package tempo

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeout  = errors.New("invalid step timeout")
	ErrCallbackFailure = errors.New("step callback failed")
	ErrNilCallback     = errors.New("step callback is nil")
	ErrTypeMismatch    = errors.New("step type mismatch")
	ErrInvalidRepeat   = errors.New("repeat count must not be negative")
	ErrNoResult        = errors.New("step future closed without a result")
)

// TimeoutError reports a step delay rejected at build time.
type TimeoutError struct {
	Delay time.Duration
	// Millis holds the rejected millisecond value when FromMillis is set,
	// e.g. NaN or an infinity.
	Millis     float64
	FromMillis bool
}

func (e *TimeoutError) Error() string {
	if e.FromMillis {
		return fmt.Sprintf("%s: %vms", ErrInvalidTimeout, e.Millis)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidTimeout, e.Delay)
}

func (e *TimeoutError) Unwrap() error {
	return ErrInvalidTimeout
}

// StepError identifies the step whose callback failed during a run.
type StepError struct {
	Index     int
	Iteration int
	Delay     time.Duration
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (after %s, iteration %d): %v", e.Index, e.Delay, e.Iteration, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{ErrCallbackFailure, e.Err}
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// TypeMismatchError reports adjacent steps whose types do not line up.
type TypeMismatchError struct {
	Index int
	Want  string
	Got   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s at step %d: want %s, got %s", ErrTypeMismatch, e.Index, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// ValidateDelay rejects negative step delays.
func ValidateDelay(d time.Duration) error {
	if d < 0 {
		return &TimeoutError{Delay: d}
	}
	return nil
}
