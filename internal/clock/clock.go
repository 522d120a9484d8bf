// Package clock lets services read the current time through an injectable
// source so that week boundaries and open-log durations are testable.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock returns the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// FuncClock adapts a function to Clock.
type FuncClock func() time.Time

func (f FuncClock) Now() time.Time {
	return f()
}

func NewReal() Clock {
	return RealClock{}
}

func NewFixed(t time.Time) Clock {
	return FixedClock{T: t}
}
