// Package directory holds the meeting directory backends: an in-process map
// and a SQLite table. Both hand out ULID meeting ids.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/oklog/ulid/v2"
)

const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open returns the directory for driver, or nil for DriverNone. The returned
// close func is never nil.
func Open(ctx context.Context, driver, dsn string) (core.MeetingDirectory, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(driver) {
	case "", DriverNone:
		return nil, noop, nil
	case DriverMemory:
		return NewMemory(), noop, nil
	case DriverSQLite:
		s, err := NewSQLite(ctx, dsn)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown directory driver %q", driver)
	}
}

func newMeetingID() string {
	return ulid.Make().String()
}
