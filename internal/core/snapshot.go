package core

import (
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

// RoomInfo is a read-only view for APIs (no member state).
type RoomInfo struct {
	ID          domain.RoomID       `json:"id"`
	MemberCount int                 `json:"memberCount"`
	CreatedAt   time.Time           `json:"createdAt"`
	HostID      domain.ConnectionID `json:"hostId"`
}

type Snapshot struct {
	ActiveRooms       int        `json:"activeRooms"`
	ActiveConnections int        `json:"activeConnections"`
	Rooms             []RoomInfo `json:"rooms"`
}
