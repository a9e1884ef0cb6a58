package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
)

type fakeStats struct {
	snap core.Snapshot
	err  error
}

func (f fakeStats) Snapshot(context.Context) (core.Snapshot, error) { return f.snap, f.err }

func newTestRouter(stats StatsSource) http.Handler {
	cfg := &config.Config{Mode: "test", Secret: "test-secret"}
	return SetupRouter(context.Background(), cfg, Deps{
		Stats:      stats,
		ICEServers: rtc.DefaultICEServers(),
		StartedAt:  time.Now().Add(-time.Minute),
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestRouter(fakeStats{snap: core.Snapshot{ActiveRooms: 2, ActiveConnections: 5}})
	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status            string  `json:"status"`
		Timestamp         string  `json:"timestamp"`
		Uptime            float64 `json:"uptime"`
		ActiveMeetings    int     `json:"activeMeetings"`
		ActiveConnections int     `json:"activeConnections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.ActiveMeetings != 2 || body.ActiveConnections != 5 {
		t.Fatalf("body = %+v", body)
	}
	if body.Uptime < 60 {
		t.Fatalf("uptime = %v", body.Uptime)
	}
}

func TestHealth_LoopDown(t *testing.T) {
	h := newTestRouter(fakeStats{err: errors.New("stopped")})
	if rec := get(t, h, "/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMeetingStats(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := newTestRouter(fakeStats{snap: core.Snapshot{
		ActiveRooms:       1,
		ActiveConnections: 2,
		Rooms:             []core.RoomInfo{{ID: "r1", MemberCount: 2, CreatedAt: created, HostID: "a"}},
	}})
	rec := get(t, h, "/api/meetings/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Rooms) != 1 || snap.Rooms[0].HostID != "a" || !snap.Rooms[0].CreatedAt.Equal(created) {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !strings.Contains(rec.Body.String(), `"memberCount":2`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestICEServers(t *testing.T) {
	rec := get(t, newTestRouter(fakeStats{}), "/api/ice-servers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), rtc.DefaultSTUN) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestMetricsExposed(t *testing.T) {
	rec := get(t, newTestRouter(fakeStats{}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "huddle_active_rooms") {
		t.Fatalf("huddle metrics missing")
	}
}

func TestClientTokenCookie(t *testing.T) {
	rec := get(t, newTestRouter(fakeStats{}), "/health")
	if !strings.Contains(rec.Header().Get("Set-Cookie"), sessionName+"=") {
		t.Fatalf("Set-Cookie = %q", rec.Header().Get("Set-Cookie"))
	}
}
