package core

import (
	"errors"

	"github.com/dkeye/Huddle/internal/domain"
)

var (
	ErrBackpressure   = errors.New("backpressure")
	ErrConnectionGone = errors.New("connection gone")
)

// Frame is a raw encoded message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Deliverer is the transport seen from the event loop.
// Deliver must never block; a full send buffer is reported as an error.
type Deliverer interface {
	Deliver(to domain.ConnectionID, msg Message) error
	// Kick closes the transport of id; its read loop then reports a disconnect.
	Kick(id domain.ConnectionID)
	IsLive(id domain.ConnectionID) bool
}
