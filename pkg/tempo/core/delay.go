package core

import (
	"math"
	"time"

	"github.com/ib-77/tempo/pkg/tempo"
)

// Clock supplies the time source for step delays.
type Clock interface {
	Now() time.Time
	// Delay returns a channel that is closed once at least d has elapsed.
	Delay(d time.Duration) <-chan struct{}
}

type realClock struct{}

func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Delay(d time.Duration) <-chan struct{} {
	return Delay(d)
}

// Delay returns a channel closed after d. A zero or negative d still goes
// through a timer, so a receiver always suspends at least once.
func Delay(d time.Duration) <-chan struct{} {
	if d < 0 {
		d = 0
	}

	done := make(chan struct{})
	time.AfterFunc(d, func() {
		close(done)
	})
	return done
}

// Millis converts a millisecond count into a step delay.
func Millis(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return 0, &tempo.TimeoutError{Millis: ms, FromMillis: true}
	}

	d := ms * float64(time.Millisecond)
	if d >= math.MaxInt64 {
		return 0, &tempo.TimeoutError{Millis: ms, FromMillis: true}
	}
	return time.Duration(d), nil
}
