package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
)

// Client→server event names.
const (
	EventJoin            = "join"
	EventJoinMeeting     = "joinMeeting"
	EventSendingSignal   = "sendingSignal"
	EventReturningSignal = "returningSignal"
	EventToggleMute      = "toggleMute"
	EventToggleVideo     = "toggleVideo"
	EventEndCall         = "endCall"
	EventLeaveCall       = "leaveCall"
	EventPing            = "ping"
)

var (
	ErrBadEnvelope    = errors.New("bad envelope")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("bad payload")
)

// Command is one inbound protocol event. The set of implementations is closed:
// the router switches over the concrete types below.
type Command interface {
	Name() string
}

// Connect and Disconnect are produced by the transport, never decoded from the wire.
type Connect struct {
	UserID domain.UserID
}

type Disconnect struct{}

type Join struct {
	MeetingID domain.RoomID `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
}

// SendingSignal carries an opaque WebRTC payload from CallerID to UserToSignal.
type SendingSignal struct {
	UserToSignal domain.ConnectionID `json:"userToSignal"`
	CallerID     domain.ConnectionID `json:"callerID"`
	Signal       json.RawMessage     `json:"signal"`
}

// ReturningSignal answers a SendingSignal back to CallerID.
type ReturningSignal struct {
	Signal   json.RawMessage     `json:"signal"`
	CallerID domain.ConnectionID `json:"callerID"`
}

type ToggleMute struct {
	MeetingID domain.RoomID `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
	IsMuted   bool          `json:"isMuted"`
}

type ToggleVideo struct {
	MeetingID domain.RoomID `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
	IsVideoOn bool          `json:"isVideoOn"`
}

type EndCall struct {
	MeetingID domain.RoomID `json:"meetingId"`
}

type LeaveCall struct {
	MeetingID domain.RoomID `json:"meetingId"`
}

type Ping struct{}

func (Connect) Name() string         { return "connect" }
func (Disconnect) Name() string      { return "disconnect" }
func (Join) Name() string            { return EventJoin }
func (SendingSignal) Name() string   { return EventSendingSignal }
func (ReturningSignal) Name() string { return EventReturningSignal }
func (ToggleMute) Name() string      { return EventToggleMute }
func (ToggleVideo) Name() string     { return EventToggleVideo }
func (EndCall) Name() string         { return EventEndCall }
func (LeaveCall) Name() string       { return EventLeaveCall }
func (Ping) Name() string            { return EventPing }

// DecodeCommand parses one client frame of the form {"type": ..., "data": ...}.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadEnvelope, err)
	}

	switch env.Type {
	case EventJoin, EventJoinMeeting:
		return decodePayload[Join](env.Data)
	case EventSendingSignal:
		return decodePayload[SendingSignal](env.Data)
	case EventReturningSignal:
		return decodePayload[ReturningSignal](env.Data)
	case EventToggleMute:
		return decodePayload[ToggleMute](env.Data)
	case EventToggleVideo:
		return decodePayload[ToggleVideo](env.Data)
	case EventEndCall:
		return decodePayload[EndCall](env.Data)
	case EventLeaveCall:
		return decodePayload[LeaveCall](env.Data)
	case EventPing:
		return Ping{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrBadEnvelope)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}

func decodePayload[T Command](raw json.RawMessage) (Command, error) {
	var c T
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: missing data", ErrBadPayload, c.Name())
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadPayload, c.Name(), err)
	}
	return c, nil
}
