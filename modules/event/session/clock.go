package session

import "time"

// Timer is the part of *time.Timer the session uses.
type Timer interface {
	Stop() bool
}

// Clock supplies time and deferred callbacks so tests can drive the
// debounce and suppression windows by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
