package repository

import "time"

// Clock abstracts wall-clock time so the reset sweep can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
