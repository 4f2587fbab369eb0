package sequence

import (
	"context"
	"reflect"
	"time"

	"github.com/ib-77/tempo/pkg/tempo"
)

// Step pairs a delay with a callback. Steps are immutable; build them with
// NewStep or NewAsyncStep.
type Step struct {
	delay  time.Duration
	in     reflect.Type
	out    reflect.Type
	async  bool
	invoke func(ctx context.Context, in any) tempo.Result[any]
}

// NewStep builds a step running fn synchronously after delay.
func NewStep[In, Out any](delay time.Duration,
	fn func(ctx context.Context, in In) (Out, error)) (Step, error) {

	if err := tempo.ValidateDelay(delay); err != nil {
		return Step{}, err
	}
	if fn == nil {
		return Step{}, tempo.ErrNilCallback
	}

	return Step{
		delay: delay,
		in:    reflect.TypeFor[In](),
		out:   reflect.TypeFor[Out](),
		invoke: func(ctx context.Context, in any) tempo.Result[any] {
			v, err := assertInput[In](in)
			if err != nil {
				return tempo.Fail[any](err)
			}
			return tempo.Try(ctx, v, func(ctx context.Context, v In) (any, error) {
				out, err := fn(ctx, v)
				return out, err
			})
		},
	}, nil
}

// NewAsyncStep builds a step whose callback hands back a future. The run
// waits for the first value received from it.
func NewAsyncStep[In, Out any](delay time.Duration,
	fn func(ctx context.Context, in In) <-chan tempo.Result[Out]) (Step, error) {

	if err := tempo.ValidateDelay(delay); err != nil {
		return Step{}, err
	}
	if fn == nil {
		return Step{}, tempo.ErrNilCallback
	}

	return Step{
		delay: delay,
		in:    reflect.TypeFor[In](),
		out:   reflect.TypeFor[Out](),
		async: true,
		invoke: func(ctx context.Context, in any) (res tempo.Result[any]) {
			defer func() {
				if r := recover(); r != nil {
					res = tempo.Fail[any](&tempo.PanicError{Value: r})
				}
			}()

			v, err := assertInput[In](in)
			if err != nil {
				return tempo.Fail[any](err)
			}
			future := fn(ctx, v)
			if future == nil {
				return tempo.Fail[any](tempo.ErrNoResult)
			}

			out, ok := <-future
			if !ok {
				return tempo.Fail[any](tempo.ErrNoResult)
			}
			return tempo.Finally[Out, tempo.Result[any]](ctx, out,
				func(_ context.Context, r Out) tempo.Result[any] { return tempo.Success[any](r) },
				func(_ context.Context, err error) tempo.Result[any] { return tempo.Fail[any](err) },
				func(_ context.Context, err error) tempo.Result[any] { return tempo.Cancel[any](err) })
		},
	}, nil
}

// assertInput narrows the accumulated value to the step input. A nil value
// is the zero value of an interface typed output and only an interface
// input accepts it.
func assertInput[In any](in any) (In, error) {
	v, ok := in.(In)
	if ok {
		return v, nil
	}

	want := reflect.TypeFor[In]()
	if in == nil {
		if want.Kind() == reflect.Interface {
			return v, nil
		}
		return v, &tempo.TypeMismatchError{Want: want.String(), Got: "nil"}
	}
	return v, &tempo.TypeMismatchError{Want: want.String(), Got: reflect.TypeOf(in).String()}
}

func (s Step) Delay() time.Duration {
	return s.delay
}

// In is the type the callback consumes.
func (s Step) In() reflect.Type {
	return s.in
}

// Out is the type the callback produces.
func (s Step) Out() reflect.Type {
	return s.out
}

func (s Step) Async() bool {
	return s.async
}

func (s Step) valid() bool {
	return s.invoke != nil
}
