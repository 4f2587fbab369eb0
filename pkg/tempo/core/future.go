package core

import (
	"context"

	"github.com/ib-77/tempo/pkg/tempo"
)

// Go runs fn on its own goroutine. The returned future receives exactly one
// result and is then closed; it never blocks the sender.
func Go[T any](fn func() tempo.Result[T]) <-chan tempo.Result[T] {
	out := make(chan tempo.Result[T], 1)

	go func() {
		defer close(out)
		out <- fn()
	}()

	return out
}

// Resolved returns a future already holding r.
func Resolved[T any](r tempo.Result[T]) <-chan tempo.Result[T] {
	out := make(chan tempo.Result[T], 1)
	out <- r
	close(out)
	return out
}

// Await waits for the future or for ctx, whichever comes first. Giving up on
// ctx does not stop the work behind the future.
func Await[T any](ctx context.Context, future <-chan tempo.Result[T]) tempo.Result[T] {
	select {
	case res, ok := <-future:
		if !ok {
			return tempo.Fail[T](tempo.ErrNoResult)
		}
		return res
	case <-ctx.Done():
		return tempo.Cancel[T](ctx.Err())
	}
}

// AwaitValue is Await unpacked into a value/error pair.
func AwaitValue[T any](ctx context.Context, future <-chan tempo.Result[T]) (T, error) {
	return Await(ctx, future).Get()
}
