package clock

import "time"

// Clock abstracts wall-clock time so cooldown and dedup logic is testable.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }
