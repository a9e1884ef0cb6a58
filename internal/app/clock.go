package app

import "time"

// Clock returns the current time. Stores take one so tests can pin JoinedAt.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
