// Package domain contains the meeting entities and the small rules attached to them.
package domain

import "errors"

const (
	MaxRoomIDLen = 128
	MaxUserIDLen = 64
)

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type (
	ConnectionID string
	UserID       string
	RoomID       string
)

// Validate checks a caller-supplied room id.
func (id RoomID) Validate() error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
