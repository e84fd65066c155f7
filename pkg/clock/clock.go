// Package clock supplies the current time as milliseconds since the Unix
// epoch. Store operations take "now" as an argument; this package is where
// callers get it from.
package clock

import "time"

// Clock returns the current time in epoch milliseconds. Implementations used
// in tests may return any value, including one earlier than a previous call.
type Clock interface {
	Now() int64
}

// Real reads the wall clock.
type Real struct{}

func (Real) Now() int64 {
	return time.Now().UnixMilli()
}

// Fixed always returns the same instant.
type Fixed int64

func (f Fixed) Now() int64 {
	return int64(f)
}

// Func adapts an ordinary function to Clock.
type Func func() int64

func (f Func) Now() int64 {
	return f()
}

// ToTime converts epoch milliseconds back to a time.Time in UTC.
func ToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
