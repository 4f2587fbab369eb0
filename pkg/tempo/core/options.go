package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OptionKey string

const RunInfoKey OptionKey = "run_info"

// RunInfo describes the invocation a callback is executing in.
type RunInfo struct {
	RunID     uuid.UUID
	Iteration int
	Step      int
	Delay     time.Duration
}

func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, RunInfoKey, info)
}

func RunInfoFrom(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(RunInfoKey).(RunInfo)
	return info, ok
}
