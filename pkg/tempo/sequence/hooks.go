package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ib-77/tempo/pkg/tempo"
)

// Status captures the lifecycle status of a step or run. A step is pending
// while it waits out its delay.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event is passed to hook callbacks. Step is -1 for run events.
type Event struct {
	RunID     uuid.UUID
	Iteration int
	Step      int
	Delay     time.Duration
	Status    Status
	StartedAt time.Time
	Duration  time.Duration
	Result    any
	Err       error
}

// HookFunc is invoked for lifecycle notifications on the goroutine
// executing the run. A panicking hook is logged and otherwise ignored; it
// never changes the outcome of the run.
type HookFunc func(context.Context, Event)

// Hooks aggregates optional lifecycle callbacks.
type Hooks struct {
	// OnStepScheduled fires before the step's delay starts.
	OnStepScheduled HookFunc
	OnStepStart     HookFunc
	OnStepSuccess   HookFunc
	OnStepFailure   HookFunc
	OnRunFinish     HookFunc
}

// Merge combines two hook sets, running the receiver first.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnStepScheduled: chainHooks(h.OnStepScheduled, other.OnStepScheduled),
		OnStepStart:     chainHooks(h.OnStepStart, other.OnStepStart),
		OnStepSuccess:   chainHooks(h.OnStepSuccess, other.OnStepSuccess),
		OnStepFailure:   chainHooks(h.OnStepFailure, other.OnStepFailure),
		OnRunFinish:     chainHooks(h.OnRunFinish, other.OnRunFinish),
	}
}

func chainHooks(first, second HookFunc) HookFunc {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(ctx context.Context, event Event) {
			first(ctx, event)
			second(ctx, event)
		}
	}
}

func (f HookFunc) fire(ctx context.Context, logger zerolog.Logger, event Event) {
	if f == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Err(&tempo.PanicError{Value: r}).
				Str("status", string(event.Status)).
				Msg("hook panicked")
		}
	}()
	f(ctx, event)
}
