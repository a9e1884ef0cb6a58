package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingConflict = errors.New("meeting url already taken")
)

type MeetingStatus string

const (
	MeetingActive MeetingStatus = "active"
	MeetingEnded  MeetingStatus = "ended"
)

// Meeting is the persisted record owned by the external meeting directory.
type Meeting struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	URL       string        `json:"meetingUrl"`
	Status    MeetingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// MeetingDirectory is consumed, not owned, by the signaling core. It is only
// asked whether a meeting exists and is active before a join is admitted.
type MeetingDirectory interface {
	CreateMeeting(ctx context.Context, title, url string) (Meeting, error)
	// GetMeetingByURL returns ErrMeetingNotFound unless an active meeting has url.
	GetMeetingByURL(ctx context.Context, url string) (Meeting, error)
}
