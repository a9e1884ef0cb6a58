package orch

import (
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) toggleMute(sid domain.ConnectionID, c core.ToggleMute, out *outbox) {
	if !o.setFlag(sid, c.MeetingID, app.FlagMute, c.IsMuted) {
		return
	}
	out.sendAll(o.othersIn(c.MeetingID, sid), core.Message{Type: core.EventUserMuted, Data: core.UserMuted{
		UserID:  sid,
		IsMuted: c.IsMuted,
	}})
}

func (o *Orchestrator) toggleVideo(sid domain.ConnectionID, c core.ToggleVideo, out *outbox) {
	if !o.setFlag(sid, c.MeetingID, app.FlagVideo, c.IsVideoOn) {
		return
	}
	out.sendAll(o.othersIn(c.MeetingID, sid), core.Message{Type: core.EventUserVideo, Data: core.UserVideo{
		UserID:    sid,
		IsVideoOn: c.IsVideoOn,
	}})
}

// setFlag applies a member flag if sid currently sits in room.
func (o *Orchestrator) setFlag(sid domain.ConnectionID, room domain.RoomID, flag app.MemberFlag, value bool) bool {
	conn, ok := o.Registry.Get(sid)
	if !ok || !conn.InRoom() || conn.CurrentRoom != room {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("state toggle: not in meeting")
		return false
	}
	return o.Rooms.SetMemberFlag(room, sid, flag, value)
}
