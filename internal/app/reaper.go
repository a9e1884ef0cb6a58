package app

import (
	"slices"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultRoomRetention = 30 * time.Minute
)

// Reaper selects what a periodic sweep must evict. Emptiness is the gate for
// rooms; age only matters once a room is empty. The selection is applied by
// the event loop so peers of an orphaned connection still get notified.
type Reaper struct {
	Rooms     *RoomStore
	Registry  *Registry
	Interval  time.Duration
	Retention time.Duration
	// IsLive reports transport liveness. Without it no connection is stale.
	IsLive func(domain.ConnectionID) bool
}

// Sweep lists the evictions chosen by one pass.
type Sweep struct {
	Rooms       []domain.RoomID
	Connections []domain.ConnectionID
}

func (s Sweep) Empty() bool { return len(s.Rooms) == 0 && len(s.Connections) == 0 }

func (r *Reaper) Collect(now time.Time) Sweep {
	var s Sweep
	if r.Rooms != nil {
		s.Rooms = slices.Sorted(r.Rooms.StaleRooms(now, r.retention()))
	}
	if r.Registry != nil && r.IsLive != nil {
		s.Connections = slices.Sorted(r.Registry.StaleConnections(r.IsLive))
	}
	return s
}

func (r *Reaper) SweepInterval() time.Duration {
	if r.Interval <= 0 {
		return DefaultSweepInterval
	}
	return r.Interval
}

func (r *Reaper) retention() time.Duration {
	if r.Retention <= 0 {
		return DefaultRoomRetention
	}
	return r.Retention
}
