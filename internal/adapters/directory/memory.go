package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/core"
)

type Memory struct {
	mu    sync.RWMutex
	byURL map[string]core.Meeting
}

func NewMemory() *Memory {
	return &Memory{byURL: make(map[string]core.Meeting)}
}

func (m *Memory) CreateMeeting(_ context.Context, title, url string) (core.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byURL[url]; ok {
		return core.Meeting{}, fmt.Errorf("create %q: %w", url, core.ErrMeetingConflict)
	}
	mt := core.Meeting{
		ID:        newMeetingID(),
		Title:     title,
		URL:       url,
		Status:    core.MeetingActive,
		CreatedAt: time.Now().UTC(),
	}
	m.byURL[url] = mt
	return mt, nil
}

func (m *Memory) GetMeetingByURL(_ context.Context, url string) (core.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.byURL[url]
	if !ok || mt.Status != core.MeetingActive {
		return core.Meeting{}, core.ErrMeetingNotFound
	}
	return mt, nil
}

// EndMeeting marks url ended; later lookups report it as not found.
func (m *Memory) EndMeeting(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.byURL[url]
	if !ok {
		return core.ErrMeetingNotFound
	}
	mt.Status = core.MeetingEnded
	m.byURL[url] = mt
	return nil
}
