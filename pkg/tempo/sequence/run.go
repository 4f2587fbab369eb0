package sequence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/ib-77/tempo/pkg/tempo"
	"github.com/ib-77/tempo/pkg/tempo/core"
)

// execution is one Run or Repeat invocation. It owns the accumulated value,
// so invocations never share mutable state.
type execution struct {
	cfg    *Config
	steps  []Step
	runID  uuid.UUID
	logger zerolog.Logger
	tracer trace.Tracer
}

func (s Sequence[Out]) newExecution() *execution {
	cfg := s.config()
	runID := uuid.New()

	return &execution{
		cfg:    cfg,
		steps:  s.Steps(),
		runID:  runID,
		logger: cfg.Logger.With().Str("run_id", runID.String()).Logger(),
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
}

// Run executes every step once, in order, feeding each output into the next
// step. The returned future receives the last step's output, or the first
// failure, and is then closed. An empty sequence resolves at once to the
// zero Out (tempo.Unit{} for New()).
//
// ctx is handed to the callbacks and carries core.RunInfo; cancelling it
// does not interrupt the run. Race the future against ctx.Done() to stop
// waiting for it.
func (s Sequence[Out]) Run(ctx context.Context) <-chan tempo.Result[Out] {
	if s.Len() == 0 {
		var out Out
		return core.Resolved(tempo.Success(out))
	}

	e := s.newExecution()
	return core.Go(func() tempo.Result[Out] {
		return convert[Out](e.run(ctx, 0), len(e.steps))
	})
}

// Repeat runs the whole sequence times times, strictly one after another,
// each run starting again from tempo.Unit{}. The future receives the last
// run's result; the first failing run stops the rest. times == 0 resolves at
// once to tempo.Nothing.
func (s Sequence[Out]) Repeat(ctx context.Context, times int) <-chan tempo.Result[Out] {
	switch {
	case times < 0:
		return core.Resolved(tempo.Fail[Out](tempo.ErrInvalidRepeat))
	case times == 0:
		return core.Resolved(tempo.Nothing[Out]())
	}

	e := s.newExecution()
	return core.Go(func() tempo.Result[Out] {
		return convert[Out](e.repeat(ctx, times), len(e.steps))
	})
}

// Await runs the sequence and waits for its output or for ctx.
func (s Sequence[Out]) Await(ctx context.Context) (Out, error) {
	return core.AwaitValue(ctx, s.Run(ctx))
}

// AwaitRepeat repeats the sequence and waits for its output or for ctx.
func (s Sequence[Out]) AwaitRepeat(ctx context.Context, times int) (Out, error) {
	return core.AwaitValue(ctx, s.Repeat(ctx, times))
}

func (e *execution) repeat(ctx context.Context, times int) tempo.Result[any] {
	ctx, span := startSpan(ctx, e.tracer, "sequence.repeat",
		attrRunID.String(e.runID.String()),
		attrSteps.Int(len(e.steps)),
		attrTimes.Int(times))

	e.logger.Debug().Int("times", times).Int("steps", len(e.steps)).Msg("repeat started")

	var last tempo.Result[any]
	for i := range times {
		last = e.run(ctx, i)
		if last.IsFailure() {
			e.logger.Warn().Err(last.Err()).Int("iteration", i).Msg("repeat aborted")
			endSpan(span, last.Err())
			return last
		}
	}

	endSpan(span, nil)
	return last
}

func (e *execution) run(ctx context.Context, iteration int) tempo.Result[any] {
	ctx, span := startSpan(ctx, e.tracer, "sequence.run",
		attrRunID.String(e.runID.String()),
		attrIteration.Int(iteration),
		attrSteps.Int(len(e.steps)))

	logger := e.logger.With().Int("iteration", iteration).Logger()
	startedAt := e.cfg.Clock.Now()
	finish := func(res tempo.Result[any]) tempo.Result[any] {
		event := Event{
			RunID:     e.runID,
			Iteration: iteration,
			Step:      -1,
			Status:    StatusSucceeded,
			StartedAt: startedAt,
			Duration:  e.cfg.Clock.Now().Sub(startedAt),
			Result:    res.Result(),
			Err:       res.Err(),
		}
		if res.IsFailure() {
			event.Status = StatusFailed
			logger.Warn().Err(res.Err()).Dur("elapsed", event.Duration).Msg("run failed")
		} else {
			logger.Info().Dur("elapsed", event.Duration).Msg("run completed")
		}
		e.cfg.Hooks.OnRunFinish.fire(ctx, logger, event)
		endSpan(span, res.Err())
		return res
	}

	var acc any = tempo.Unit{}
	for i, step := range e.steps {
		res := e.step(ctx, logger, iteration, i, step, acc)
		if res.IsFailure() {
			return finish(res)
		}
		acc = res.Result()
	}

	return finish(tempo.Success(acc))
}

func (e *execution) step(ctx context.Context, logger zerolog.Logger, iteration, index int,
	step Step, in any) tempo.Result[any] {

	ctx = core.WithRunInfo(ctx, core.RunInfo{
		RunID:     e.runID,
		Iteration: iteration,
		Step:      index,
		Delay:     step.delay,
	})
	ctx, span := startSpan(ctx, e.tracer, "sequence.step",
		attrRunID.String(e.runID.String()),
		attrIteration.Int(iteration),
		attrStep.Int(index),
		attrDelayMs.Int64(step.delay.Milliseconds()))

	logger = logger.With().Int("step", index).Dur("delay", step.delay).Logger()
	logger.Debug().Msg("step waiting")

	event := Event{
		RunID:     e.runID,
		Iteration: iteration,
		Step:      index,
		Delay:     step.delay,
		Status:    StatusPending,
		StartedAt: e.cfg.Clock.Now(),
	}
	e.cfg.Hooks.OnStepScheduled.fire(ctx, logger, event)

	<-e.cfg.Clock.Delay(step.delay)

	event.Status = StatusRunning
	event.StartedAt = e.cfg.Clock.Now()
	e.cfg.Hooks.OnStepStart.fire(ctx, logger, event)
	logger.Debug().Bool("async", step.async).Msg("step started")

	res := step.invoke(ctx, in)
	event.Duration = e.cfg.Clock.Now().Sub(event.StartedAt)

	if res.IsFailure() {
		var mismatch *tempo.TypeMismatchError
		if errors.As(res.Err(), &mismatch) {
			mismatch.Index = index
		}

		err := &tempo.StepError{Index: index, Iteration: iteration, Delay: step.delay, Err: res.Err()}
		event.Status = StatusFailed
		event.Err = err
		e.cfg.Hooks.OnStepFailure.fire(ctx, logger, event)
		logger.Debug().Errs("causes", tempo.GetErrors(err)).Msg("step failed")
		endSpan(span, err)

		if res.IsCancel() || tempo.IsCancellationError(res.Err()) {
			return tempo.Cancel[any](err)
		}
		return tempo.Fail[any](err)
	}

	event.Status = StatusSucceeded
	event.Result = res.Result()
	e.cfg.Hooks.OnStepSuccess.fire(ctx, logger, event)
	logger.Debug().Dur("took", event.Duration).Msg("step succeeded")
	endSpan(span, nil)
	return res
}

// convert narrows a run result to the declared output type. index is the
// position after the last step, reported when the value does not fit Out.
func convert[Out any](res tempo.Result[any], index int) tempo.Result[Out] {
	if res.IsFailure() {
		return tempo.CancelFrom[any, Out](res)
	}
	if !res.HasResult() {
		return tempo.Nothing[Out]()
	}

	out, err := assertInput[Out](res.Result())
	if err != nil {
		var mismatch *tempo.TypeMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Index = index
		}
		return tempo.Fail[Out](err)
	}
	return tempo.Success(out)
}
