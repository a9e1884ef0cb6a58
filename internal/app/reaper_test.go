package app

import (
	"slices"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

func TestReaper_CollectRoomsAndConnections(t *testing.T) {
	clk := newFakeClock()
	rooms := NewRoomStore(clk.Now)
	reg := NewRegistry(clk.Now)

	rooms.EnsureRoom("empty", "x")
	rooms.EnsureRoom("busy", "a")
	_ = rooms.AddMember("busy", "a")
	reg.Register("a")
	reg.Register("ghost")

	r := &Reaper{
		Rooms:     rooms,
		Registry:  reg,
		Retention: 30 * time.Minute,
		IsLive:    func(id domain.ConnectionID) bool { return id == "a" },
	}
	sweep := r.Collect(clk.Now().Add(time.Hour))
	if !slices.Equal(sweep.Rooms, []domain.RoomID{"empty"}) {
		t.Fatalf("rooms = %v", sweep.Rooms)
	}
	if !slices.Equal(sweep.Connections, []domain.ConnectionID{"ghost"}) {
		t.Fatalf("connections = %v", sweep.Connections)
	}
}

func TestReaper_NoLivenessMeansNoStaleConnections(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("a")
	r := &Reaper{Registry: reg}
	if s := r.Collect(time.Now()); !s.Empty() {
		t.Fatalf("sweep = %#v", s)
	}
}

func TestReaper_Defaults(t *testing.T) {
	r := &Reaper{}
	if r.SweepInterval() != DefaultSweepInterval || r.retention() != DefaultRoomRetention {
		t.Fatalf("defaults not applied")
	}
}
