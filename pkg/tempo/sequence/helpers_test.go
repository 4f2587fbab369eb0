package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/ib-77/tempo/pkg/tempo"
	"github.com/ib-77/tempo/pkg/tempo/core"
)

// recordingClock records requested delays and resolves each one right away.
type recordingClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *recordingClock) Now() time.Time {
	return time.Now()
}

func (c *recordingClock) Delay(d time.Duration) <-chan struct{} {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	return core.Delay(0)
}

func (c *recordingClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func constant[T any](v T) func(context.Context, tempo.Unit) (T, error) {
	return func(context.Context, tempo.Unit) (T, error) {
		return v, nil
	}
}

func double(_ context.Context, x int) (int, error) {
	return x * 2, nil
}

// exampleChain is after(100, () => 5).after(50, x => x * 2).
func exampleChain(opts ...Option) Sequence[int] {
	return MustAfter(MustAfter(New(opts...), 100*time.Millisecond, constant(5)), 50*time.Millisecond, double)
}
