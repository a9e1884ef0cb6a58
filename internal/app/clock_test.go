package app

import "time"

// fakeClock advances one second per call unless frozen.
type fakeClock struct {
	t      time.Time
	frozen bool
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	if !c.frozen {
		c.t = c.t.Add(time.Second)
	}
	return c.t
}
