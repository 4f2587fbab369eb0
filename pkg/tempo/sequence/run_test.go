package sequence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/tempo/pkg/tempo"
	"github.com/ib-77/tempo/pkg/tempo/core"
)

func TestRun_ThreadsOutputsAfterDelays(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	start := time.Now()
	res := core.Await(ctx, exampleChain().Run(ctx))
	elapsed := time.Since(start)

	require.True(t, res.IsSuccess(), "unexpected error: %v", res.Err())
	assert.Equal(t, 10, res.Result())
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestRun_FutureIsClosedAfterResult(t *testing.T) {
	t.Parallel()

	future := MustAfter(New(), 0, constant(1)).Run(context.Background())
	_, ok := <-future
	require.True(t, ok)
	_, ok = <-future
	assert.False(t, ok)
}

func TestRun_EmptyResolvesImmediately(t *testing.T) {
	t.Parallel()

	future := New().Run(context.Background())

	select {
	case res := <-future:
		require.True(t, res.IsSuccess())
		assert.True(t, res.HasResult())
		assert.Equal(t, tempo.Unit{}, res.Result())
	default:
		t.Fatal("empty sequence must resolve without suspending")
	}
}

func TestRun_FirstStepReceivesUnit(t *testing.T) {
	t.Parallel()

	var got any
	s := MustAfter(New(), 0, func(_ context.Context, in tempo.Unit) (bool, error) {
		got = in
		return true, nil
	})

	v, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, tempo.Unit{}, got)
}

func TestRun_FailureAbortsRemainingSteps(t *testing.T) {
	t.Parallel()

	var calls [4]atomic.Int32
	boom := errors.New("boom")
	step := func(i int, fail bool) func(context.Context, int) (int, error) {
		return func(_ context.Context, x int) (int, error) {
			calls[i].Add(1)
			if fail {
				return 0, boom
			}
			return x + 1, nil
		}
	}

	s := MustAfter(New(), 0, constant(0))
	s = MustAfter(s, time.Millisecond, step(0, false))
	s = MustAfter(s, 2*time.Millisecond, step(1, true))
	s = MustAfter(s, 0, step(2, false))
	s = MustAfter(s, 0, step(3, false))

	res := core.Await(context.Background(), s.Run(context.Background()))
	require.True(t, res.IsFailure())
	assert.False(t, res.IsCancel())
	assert.ErrorIs(t, res.Err(), boom)
	assert.ErrorIs(t, res.Err(), tempo.ErrCallbackFailure)

	var se *tempo.StepError
	require.ErrorAs(t, res.Err(), &se)
	assert.Equal(t, 2, se.Index)
	assert.Equal(t, 0, se.Iteration)
	assert.Equal(t, 2*time.Millisecond, se.Delay)

	assert.EqualValues(t, 1, calls[0].Load())
	assert.EqualValues(t, 1, calls[1].Load())
	assert.EqualValues(t, 0, calls[2].Load())
	assert.EqualValues(t, 0, calls[3].Load())
}

func TestRun_FirstStepFailure(t *testing.T) {
	t.Parallel()

	s := MustAfter(New(), 0, func(context.Context, tempo.Unit) (int, error) {
		return 0, errors.New("boom")
	})

	_, err := s.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	var se *tempo.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Index)
}

func TestRun_PanicBecomesStepError(t *testing.T) {
	t.Parallel()

	s := MustAfter(MustAfter(New(), 0, constant(1)), 0, func(context.Context, int) (int, error) {
		panic("kaboom")
	})

	_, err := s.Await(context.Background())

	var pe *tempo.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)

	var se *tempo.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Index)
}

func TestRun_SyncAndAsyncCallbacksMix(t *testing.T) {
	t.Parallel()

	s := MustAfter(New(), 5*time.Millisecond, constant(2))
	s2 := MustAfterAsync(s, 5*time.Millisecond, func(_ context.Context, x int) <-chan tempo.Result[string] {
		return core.Go(func() tempo.Result[string] {
			<-core.Delay(10 * time.Millisecond)
			return tempo.Success(string(rune('a' + x)))
		})
	})
	s3 := MustAfter(s2, 0, func(_ context.Context, v string) (string, error) {
		return v + "!", nil
	})

	start := time.Now()
	v, err := s3.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c!", v)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRun_AsyncFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := MustAfter(New(), 0, constant(1))

	t.Run("failed result", func(t *testing.T) {
		s := MustAfterAsync(base, 0, func(context.Context, int) <-chan tempo.Result[int] {
			return core.Resolved(tempo.Fail[int](errors.New("rejected")))
		})
		res := core.Await(ctx, s.Run(ctx))
		assert.True(t, res.IsFailure())
		assert.False(t, res.IsCancel())
		assert.ErrorContains(t, res.Err(), "rejected")
	})

	t.Run("cancelled result", func(t *testing.T) {
		s := MustAfterAsync(base, 0, func(context.Context, int) <-chan tempo.Result[int] {
			return core.Resolved(tempo.Cancel[int](context.Canceled))
		})
		res := core.Await(ctx, s.Run(ctx))
		assert.True(t, res.IsCancel())
		assert.ErrorIs(t, res.Err(), context.Canceled)
		assert.ErrorIs(t, res.Err(), tempo.ErrCallbackFailure)
	})

	t.Run("closed without value", func(t *testing.T) {
		s := MustAfterAsync(base, 0, func(context.Context, int) <-chan tempo.Result[int] {
			ch := make(chan tempo.Result[int])
			close(ch)
			return ch
		})
		_, err := s.Await(ctx)
		assert.ErrorIs(t, err, tempo.ErrNoResult)
	})

	t.Run("nil future", func(t *testing.T) {
		s := MustAfterAsync(base, 0, func(context.Context, int) <-chan tempo.Result[int] {
			return nil
		})
		_, err := s.Await(ctx)
		assert.ErrorIs(t, err, tempo.ErrNoResult)
	})

	t.Run("panic", func(t *testing.T) {
		s := MustAfterAsync(base, 0, func(context.Context, int) <-chan tempo.Result[int] {
			panic("async kaboom")
		})
		_, err := s.Await(ctx)
		var pe *tempo.PanicError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestRun_ContextErrorFromSyncCallbackIsCancel(t *testing.T) {
	t.Parallel()

	s := MustAfter(MustAfter(New(), 0, constant(1)), 0, func(context.Context, int) (int, error) {
		return 0, context.DeadlineExceeded
	})

	res := core.Await(context.Background(), s.Run(context.Background()))
	assert.True(t, res.IsCancel())
	assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)

	var se *tempo.StepError
	require.ErrorAs(t, res.Err(), &se)
	assert.Equal(t, 1, se.Index)
}

func TestRun_CallbacksSeeRunInfo(t *testing.T) {
	t.Parallel()

	var infos []core.RunInfo
	record := func(ctx context.Context, x int) (int, error) {
		info, ok := core.RunInfoFrom(ctx)
		if !ok {
			return 0, errors.New("no run info")
		}
		infos = append(infos, info)
		return x + 1, nil
	}

	s := MustAfter(New(), 0, constant(0))
	s = MustAfter(s, 3*time.Millisecond, record)
	s = MustAfter(s, 0, record)

	_, err := s.Await(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, infos[0].RunID, infos[1].RunID)
	assert.Equal(t, 1, infos[0].Step)
	assert.Equal(t, 3*time.Millisecond, infos[0].Delay)
	assert.Equal(t, 2, infos[1].Step)
	assert.Equal(t, 0, infos[1].Iteration)
}

func TestRun_WaitsEachDelayInOrder(t *testing.T) {
	t.Parallel()

	clock := &recordingClock{}
	s := MustAfter(New(WithClock(clock)), 100*time.Millisecond, constant(5))
	s2 := MustAfter(s, 0, double)
	s3 := MustAfter(s2, 50*time.Millisecond, double)

	start := time.Now()
	v, err := s3.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	want := []time.Duration{100 * time.Millisecond, 0, 50 * time.Millisecond}
	if diff := cmp.Diff(want, clock.Delays()); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_IndependentInvocations(t *testing.T) {
	t.Parallel()

	var counter atomic.Int32
	s := MustAfter(New(), 5*time.Millisecond, func(context.Context, tempo.Unit) (int32, error) {
		return counter.Add(1), nil
	})

	ctx := context.Background()
	first, second := s.Run(ctx), s.Run(ctx)

	a := core.Await(ctx, first)
	b := core.Await(ctx, second)
	require.True(t, a.IsSuccess())
	require.True(t, b.IsSuccess())
	assert.ElementsMatch(t, []int32{1, 2}, []int32{a.Result(), b.Result()})
}

func TestRun_ConcurrentSequencesKeepTheirOrder(t *testing.T) {
	t.Parallel()

	build := func(name string, trace *[]string) Sequence[string] {
		s := MustAfter(New(), 5*time.Millisecond, func(context.Context, tempo.Unit) (string, error) {
			*trace = append(*trace, name+"1")
			return name, nil
		})
		for i := 2; i <= 4; i++ {
			label := name + string(rune('0'+i))
			s = MustAfter(s, time.Duration(i)*time.Millisecond, func(_ context.Context, v string) (string, error) {
				*trace = append(*trace, label)
				return v + label, nil
			})
		}
		return s
	}

	var traceA, traceB []string
	a, b := build("a", &traceA), build("b", &traceB)

	var outA, outB string
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		outA, err = a.Await(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		outB, err = b.Await(ctx)
		return err
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, traceA)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, traceB)
	assert.Equal(t, "aa2a3a4", outA)
	assert.Equal(t, "bb2b3b4", outB)
}

func TestRun_AppendDuringRunDoesNotChangeIt(t *testing.T) {
	t.Parallel()

	var extra atomic.Bool
	s := MustAfter(New(), 20*time.Millisecond, constant(1))
	future := s.Run(context.Background())

	longer := MustAfter(s, 0, func(_ context.Context, x int) (int, error) {
		extra.Store(true)
		return x + 1, nil
	})

	res := core.Await(context.Background(), future)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 1, res.Result())
	assert.False(t, extra.Load())
	assert.Equal(t, 2, longer.Len())
}

func TestAwait_StopsWaitingOnContext(t *testing.T) {
	t.Parallel()

	finished := make(chan struct{})
	s := MustAfter(New(), 50*time.Millisecond, func(context.Context, tempo.Unit) (int, error) {
		close(finished)
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := s.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("run must continue after the caller stops waiting")
	}
}
