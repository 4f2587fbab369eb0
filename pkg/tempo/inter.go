package tempo

import (
	"time"

	"github.com/google/uuid"
)

// ResultProvider is the read side of a settled outcome.
type ResultProvider[T any] interface {
	Result() T
	HasResult() bool
	Id() uuid.UUID
	CreatedAt() time.Time
}

// WithError is an outcome that either succeeded or carries an error.
type WithError[T any] interface {
	ResultProvider[T]
	Err() error
	IsSuccess() bool
}

// WithCancel tells a cancelled outcome apart from a failed one. Finally
// dispatches on it.
type WithCancel[T any] interface {
	WithError[T]
	IsCancel() bool
}

var _ WithCancel[Unit] = Result[Unit]{}
