package sequence

import (
	"context"
	"reflect"
	"time"

	"github.com/ib-77/tempo/pkg/tempo"
)

type node struct {
	step  Step
	prev  *node
	index int
}

// Sequence is an ordered, append-only chain of steps whose last step
// produces Out. Appending never modifies the receiver: it returns a new
// Sequence sharing the existing steps, so a running sequence cannot be
// changed through any handle. The zero value is an empty sequence with
// default options.
type Sequence[Out any] struct {
	cfg  *Config
	last *node
}

// New creates an empty sequence.
func New(opts ...Option) Sequence[tempo.Unit] {
	return Sequence[tempo.Unit]{cfg: newConfig(opts...)}
}

// FromSteps creates a sequence from a pre-built ordered list of steps. The
// step types are checked here: the first step must accept tempo.Unit, each
// output must be accepted by the next input and the last output by Out. A
// type is accepted only when it is identical or the receiving type is an
// interface it implements.
func FromSteps[Out any](steps []Step, opts ...Option) (Sequence[Out], error) {
	prev := reflect.TypeFor[tempo.Unit]()

	for i, step := range steps {
		if !step.valid() {
			return Sequence[Out]{}, tempo.ErrNilCallback
		}
		if err := tempo.ValidateDelay(step.delay); err != nil {
			return Sequence[Out]{}, err
		}
		if !accepts(step.in, prev) {
			return Sequence[Out]{}, &tempo.TypeMismatchError{Index: i, Want: step.in.String(), Got: prev.String()}
		}
		prev = step.out
	}

	if want := reflect.TypeFor[Out](); !accepts(want, prev) {
		return Sequence[Out]{}, &tempo.TypeMismatchError{Index: len(steps), Want: want.String(), Got: prev.String()}
	}

	s := Sequence[Out]{cfg: newConfig(opts...)}
	for _, step := range steps {
		s.last = &node{step: step, prev: s.last, index: s.Len()}
	}
	return s, nil
}

// accepts reports whether a value of type got passes a type assertion to want.
func accepts(want, got reflect.Type) bool {
	return got == want || (want.Kind() == reflect.Interface && got.Implements(want))
}

// After appends a step that waits delay and then calls fn with the output
// of the previous step. On error s is left as it was.
func After[In, Out any](s Sequence[In], delay time.Duration,
	fn func(ctx context.Context, in In) (Out, error)) (Sequence[Out], error) {

	step, err := NewStep(delay, fn)
	if err != nil {
		return Sequence[Out]{}, err
	}
	return appendStep[In, Out](s, step), nil
}

// AfterAsync is After for callbacks that return a future.
func AfterAsync[In, Out any](s Sequence[In], delay time.Duration,
	fn func(ctx context.Context, in In) <-chan tempo.Result[Out]) (Sequence[Out], error) {

	step, err := NewAsyncStep(delay, fn)
	if err != nil {
		return Sequence[Out]{}, err
	}
	return appendStep[In, Out](s, step), nil
}

// MustAfter is After for chains built from constants; it panics on error.
func MustAfter[In, Out any](s Sequence[In], delay time.Duration,
	fn func(ctx context.Context, in In) (Out, error)) Sequence[Out] {

	next, err := After(s, delay, fn)
	if err != nil {
		panic(err)
	}
	return next
}

func MustAfterAsync[In, Out any](s Sequence[In], delay time.Duration,
	fn func(ctx context.Context, in In) <-chan tempo.Result[Out]) Sequence[Out] {

	next, err := AfterAsync(s, delay, fn)
	if err != nil {
		panic(err)
	}
	return next
}

func appendStep[In, Out any](s Sequence[In], step Step) Sequence[Out] {
	return Sequence[Out]{
		cfg:  s.cfg,
		last: &node{step: step, prev: s.last, index: s.Len()},
	}
}

func (s Sequence[Out]) Len() int {
	if s.last == nil {
		return 0
	}
	return s.last.index + 1
}

// Steps returns the steps in execution order.
func (s Sequence[Out]) Steps() []Step {
	steps := make([]Step, s.Len())
	for n := s.last; n != nil; n = n.prev {
		steps[n.index] = n.step
	}
	return steps
}

// TotalDelay is the sum of all step delays, the least time one run takes.
func (s Sequence[Out]) TotalDelay() time.Duration {
	var total time.Duration
	for n := s.last; n != nil; n = n.prev {
		total += n.step.delay
	}
	return total
}

func (s Sequence[Out]) config() *Config {
	if s.cfg == nil {
		return newConfig()
	}
	return s.cfg
}
