package core

import (
	"encoding/json"

	"github.com/dkeye/Huddle/internal/domain"
)

// Server→client event names.
const (
	EventAllUsers                = "allUsers"
	EventHostInfo                = "hostInfo"
	EventUserJoined              = "userJoined"
	EventReceivingSignal         = "receivingSignal"
	EventReceivingReturnedSignal = "receivingReturnedSignal"
	EventUserMuted               = "userMuted"
	EventUserVideo               = "userVideo"
	EventUserLeft                = "userLeft"
	EventHostChanged             = "hostChanged"
	EventCallEnded               = "callEnded"
	EventError                   = "error"
	EventConnected               = "connected"
	EventPong                    = "pong"
)

// Message is one server frame. Data is omitted for events without payload.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Outbound addresses a Message to a single connection.
type Outbound struct {
	To      domain.ConnectionID
	Message Message
}

func (m Message) Encode() (Frame, error) {
	return json.Marshal(m)
}

type UserRef struct {
	UserID domain.ConnectionID `json:"userId"`
}

type HostInfo struct {
	HostID domain.ConnectionID `json:"hostId"`
	IsHost bool                `json:"isHost"`
}

type ReceivingSignal struct {
	Signal   json.RawMessage     `json:"signal"`
	CallerID domain.ConnectionID `json:"callerID"`
}

type ReceivingReturnedSignal struct {
	Signal json.RawMessage     `json:"signal"`
	ID     domain.ConnectionID `json:"id"`
}

type UserMuted struct {
	UserID  domain.ConnectionID `json:"userId"`
	IsMuted bool                `json:"isMuted"`
}

type UserVideo struct {
	UserID    domain.ConnectionID `json:"userId"`
	IsVideoOn bool                `json:"isVideoOn"`
}

type HostChanged struct {
	NewHostID domain.ConnectionID `json:"newHostId"`
}

type CallEnded struct {
	EndedBy domain.ConnectionID `json:"endedBy"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type Connected struct {
	SocketID  domain.ConnectionID `json:"socketId"`
	Timestamp string              `json:"timestamp"`
}

func ErrorMessage(text string) Message {
	return Message{Type: EventError, Data: ErrorPayload{Message: text}}
}
