package domain

import "time"

// Connection is the session record of one live transport connection.
// CurrentRoom is a weak reference: callers must look the room up again.
type Connection struct {
	ID          ConnectionID
	UserID      UserID
	ConnectedAt time.Time
	CurrentRoom RoomID
}

func (c Connection) InRoom() bool { return c.CurrentRoom != "" }
