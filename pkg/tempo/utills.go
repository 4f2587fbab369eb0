package tempo

import (
	"context"
	"errors"
	"reflect"
)

// IsNil reports a nil interface or one holding a nil pointer.
func IsNil(i interface{}) bool {
	if i == nil || (reflect.ValueOf(i).Kind() == reflect.Ptr && reflect.ValueOf(i).IsNil()) {
		return true
	}
	return false
}

// GetErrors lists the errors joined in err, or err itself.
func GetErrors(err error) []error {
	if IsNil(err) {
		return []error{}
	}

	e, ok := err.(interface{ Unwrap() []error })
	if ok {
		return e.Unwrap()
	}

	return []error{err}
}

// IsCancellationError reports an error caused by a done context.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Try calls onExecute and converts its error, or a panic, into a failed result.
func Try[In, Out any](ctx context.Context, input In,
	onExecute func(ctx context.Context, in In) (Out, error)) (res Result[Out]) {

	defer func() {
		if r := recover(); r != nil {
			res = Fail[Out](&PanicError{Value: r})
		}
	}()

	out, err := onExecute(ctx, input)
	if err != nil {
		return Fail[Out](err)
	}
	return Success(out)
}

// Finally collapses a result into a concrete value via the matching handler.
func Finally[In, Out any](ctx context.Context, input WithCancel[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) Out {

	if input.IsSuccess() {
		return onSuccess(ctx, input.Result())
	} else if input.IsCancel() {
		return onCancel(ctx, input.Err())
	} else {
		return onError(ctx, input.Err())
	}
}
