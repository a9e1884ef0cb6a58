package app

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrMemberNotFound = errors.New("member not found")
)

type MemberFlag int

const (
	FlagMute MemberFlag = iota
	FlagVideo
)

// RemoveResult reports what a departure did to the room.
type RemoveResult struct {
	NewHost domain.ConnectionID // empty unless the host role moved
	Deleted bool
}

// RoomStore owns every active room. Reads hand out deep copies so no caller
// keeps a Room across calls. Owned by the event loop; no locking.
type RoomStore struct {
	clock Clock
	rooms map[domain.RoomID]*domain.Room
}

func NewRoomStore(clock Clock) *RoomStore {
	return &RoomStore{
		clock: clock,
		rooms: make(map[domain.RoomID]*domain.Room),
	}
}

// EnsureRoom returns the existing room or creates an empty one hosted by
// firstMember. The caller still has to AddMember.
func (s *RoomStore) EnsureRoom(id domain.RoomID, firstMember domain.ConnectionID) domain.Room {
	if room, ok := s.rooms[id]; ok {
		return room.Clone()
	}
	room := domain.NewRoom(id, firstMember, s.clock.now())
	s.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("host", string(firstMember)).Msg("room created")
	return room.Clone()
}

func (s *RoomStore) Get(id domain.RoomID) (domain.Room, bool) {
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return room.Clone(), true
}

func (s *RoomStore) AddMember(id domain.RoomID, member domain.ConnectionID) error {
	room, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("add %s to %s: %w", member, id, ErrRoomNotFound)
	}
	if room.Empty() {
		room.Host = member
	}
	room.Members[member] = &domain.MemberState{
		IsMuted:   false,
		IsVideoOn: true,
		JoinedAt:  s.clock.now(),
		IsHost:    member == room.Host,
	}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("sid", string(member)).Int("members", len(room.Members)).Msg("member added")
	return nil
}

// RemoveMember drops member and, if it was the host, promotes domain.NextHost.
// An emptied room is deleted on the spot.
func (s *RoomStore) RemoveMember(id domain.RoomID, member domain.ConnectionID) (RemoveResult, error) {
	room, ok := s.rooms[id]
	if !ok {
		return RemoveResult{}, fmt.Errorf("remove %s from %s: %w", member, id, ErrRoomNotFound)
	}
	if _, ok := room.Members[member]; !ok {
		return RemoveResult{}, fmt.Errorf("remove %s from %s: %w", member, id, ErrMemberNotFound)
	}
	delete(room.Members, member)

	if room.Empty() {
		delete(s.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("empty room deleted")
		return RemoveResult{Deleted: true}, nil
	}

	var res RemoveResult
	if room.Host == member {
		next, _ := domain.NextHost(room.Members)
		room.Host = next
		room.Members[next].IsHost = true
		res.NewHost = next
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("host", string(next)).Msg("host promoted")
	}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("sid", string(member)).Int("members", len(room.Members)).Msg("member removed")
	return res, nil
}

// SetMemberFlag never fails: a missing room or member is a tolerated race.
// It reports whether the member existed.
func (s *RoomStore) SetMemberFlag(id domain.RoomID, member domain.ConnectionID, flag MemberFlag, value bool) bool {
	room, ok := s.rooms[id]
	if !ok {
		return false
	}
	st, ok := room.Members[member]
	if !ok {
		return false
	}
	switch flag {
	case FlagMute:
		st.IsMuted = value
	case FlagVideo:
		st.IsVideoOn = value
	}
	return true
}

func (s *RoomStore) DeleteRoom(id domain.RoomID) {
	if _, ok := s.rooms[id]; !ok {
		return
	}
	delete(s.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
}

// MembersOf returns member ids in join order, or nil for an unknown room.
func (s *RoomStore) MembersOf(id domain.RoomID) []domain.ConnectionID {
	room, ok := s.rooms[id]
	if !ok {
		return nil
	}
	return room.MemberIDs()
}

func (s *RoomStore) Len() int { return len(s.rooms) }

// List returns room infos ordered by creation time.
func (s *RoomStore) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(s.rooms))
	for id, r := range s.rooms {
		out = append(out, core.RoomInfo{
			ID:          id,
			MemberCount: len(r.Members),
			CreatedAt:   r.CreatedAt,
			HostID:      r.Host,
		})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// StaleRooms yields empty rooms created more than retention before now.
func (s *RoomStore) StaleRooms(now time.Time, retention time.Duration) iter.Seq[domain.RoomID] {
	return func(yield func(domain.RoomID) bool) {
		for id, r := range s.rooms {
			if !r.Empty() || now.Sub(r.CreatedAt) <= retention {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}
