package domain

import (
	"maps"
	"slices"
	"time"
)

// MemberState is the per-member signaling state of a room.
type MemberState struct {
	IsMuted   bool      `json:"isMuted"`
	IsVideoOn bool      `json:"isVideoOn"`
	JoinedAt  time.Time `json:"joinedAt"`
	IsHost    bool      `json:"isHost"`
}

// Room is an active meeting. The member set is the key set of Members.
type Room struct {
	ID        RoomID
	CreatedAt time.Time
	Host      ConnectionID
	Members   map[ConnectionID]*MemberState
}

func NewRoom(id RoomID, host ConnectionID, now time.Time) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		Host:      host,
		Members:   make(map[ConnectionID]*MemberState),
	}
}

func (r *Room) Empty() bool { return len(r.Members) == 0 }

// Clone returns a deep copy that shares nothing with r.
func (r *Room) Clone() Room {
	out := *r
	out.Members = make(map[ConnectionID]*MemberState, len(r.Members))
	for id, st := range r.Members {
		cp := *st
		out.Members[id] = &cp
	}
	return out
}

// MemberIDs returns members ordered by JoinedAt, ties broken by id.
func (r *Room) MemberIDs() []ConnectionID {
	ids := slices.Collect(maps.Keys(r.Members))
	slices.SortFunc(ids, func(a, b ConnectionID) int {
		return compareMembers(a, r.Members[a], b, r.Members[b])
	})
	return ids
}

// NextHost picks the member that inherits the host role: earliest JoinedAt,
// ties broken by connection id ordering. Returns false for an empty set.
func NextHost(members map[ConnectionID]*MemberState) (ConnectionID, bool) {
	var (
		best   ConnectionID
		bestSt *MemberState
	)
	for id, st := range members {
		if bestSt == nil || compareMembers(id, st, best, bestSt) < 0 {
			best, bestSt = id, st
		}
	}
	return best, bestSt != nil
}

func compareMembers(a ConnectionID, as *MemberState, b ConnectionID, bs *MemberState) int {
	if c := as.JoinedAt.Compare(bs.JoinedAt); c != 0 {
		return c
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
