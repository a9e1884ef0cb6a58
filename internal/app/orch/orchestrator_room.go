package orch

import (
	"errors"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	msgInvalidMeeting = "Invalid meeting id"
	msgInvalidUser    = "Invalid user id"
	msgJoinFailed     = "Failed to join meeting"
	msgNotInMeeting   = "You are not in this meeting"
	msgNotHost        = "Only the host can end the call for everyone"
)

func (o *Orchestrator) connect(sid domain.ConnectionID, c core.Connect, out *outbox) {
	conn := o.Registry.Register(sid)
	o.Registry.SetUser(sid, c.UserID)
	out.send(sid, core.Message{Type: core.EventConnected, Data: core.Connected{
		SocketID:  sid,
		Timestamp: conn.ConnectedAt.UTC().Format(timestampLayout),
	}})
}

func (o *Orchestrator) join(sid domain.ConnectionID, c core.Join, out *outbox) {
	conn, ok := o.Registry.Get(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join from unregistered connection")
		return
	}
	if err := c.MeetingID.Validate(); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("join rejected")
		o.reject(sid, c, msgInvalidMeeting, out)
		return
	}
	if len(c.UserID) > domain.MaxUserIDLen {
		o.reject(sid, c, msgInvalidUser, out)
		return
	}

	if conn.CurrentRoom == c.MeetingID {
		if _, ok := o.Rooms.Get(c.MeetingID); ok {
			// Already a member: resend the room state, membership is unchanged.
			o.Registry.SetUser(sid, c.UserID)
			o.sendRoomState(sid, c.MeetingID, out)
			return
		}
	}
	if conn.InRoom() {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(conn.CurrentRoom)).Msg("leaving previous room")
		o.leaveRoom(sid, conn.CurrentRoom, out)
	}

	o.Rooms.EnsureRoom(c.MeetingID, sid)
	if err := o.Rooms.AddMember(c.MeetingID, sid); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("add member")
		o.reject(sid, c, msgJoinFailed, out)
		return
	}
	o.Registry.SetCurrentRoom(sid, c.MeetingID)
	o.Registry.SetUser(sid, c.UserID)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(c.MeetingID)).Str("user", string(c.UserID)).Msg("joined")

	o.sendRoomState(sid, c.MeetingID, out)
	out.sendAll(o.othersIn(c.MeetingID, sid), core.Message{Type: core.EventUserJoined, Data: core.UserRef{UserID: sid}})
}

// sendRoomState tells sid who is in the room, who hosts it and each peer's
// mute/video state.
func (o *Orchestrator) sendRoomState(sid domain.ConnectionID, id domain.RoomID, out *outbox) {
	room, ok := o.Rooms.Get(id)
	if !ok {
		return
	}
	others := o.othersIn(id, sid)

	users := make([]core.UserRef, 0, len(others))
	for _, peer := range others {
		users = append(users, core.UserRef{UserID: peer})
	}
	out.send(sid, core.Message{Type: core.EventAllUsers, Data: users})
	out.send(sid, core.Message{Type: core.EventHostInfo, Data: core.HostInfo{HostID: room.Host, IsHost: room.Host == sid}})

	for _, peer := range others {
		st := room.Members[peer]
		out.send(sid, core.Message{Type: core.EventUserMuted, Data: core.UserMuted{UserID: peer, IsMuted: st.IsMuted}})
		out.send(sid, core.Message{Type: core.EventUserVideo, Data: core.UserVideo{UserID: peer, IsVideoOn: st.IsVideoOn}})
	}
}

func (o *Orchestrator) leaveCall(sid domain.ConnectionID, c core.LeaveCall, out *outbox) {
	conn, ok := o.Registry.Get(sid)
	if !ok || !conn.InRoom() || conn.CurrentRoom != c.MeetingID {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(c.MeetingID)).Msg("leave ignored: not in meeting")
		return
	}
	o.leaveRoom(sid, c.MeetingID, out)
}

// leaveRoom is the single departure path shared by leaveCall, disconnect and
// a join into another room. Removing an absent member is a no-op.
func (o *Orchestrator) leaveRoom(sid domain.ConnectionID, id domain.RoomID, out *outbox) {
	o.Registry.SetCurrentRoom(sid, "")

	res, err := o.Rooms.RemoveMember(id, sid)
	if err != nil {
		if errors.Is(err, app.ErrRoomNotFound) || errors.Is(err, app.ErrMemberNotFound) {
			log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("leave: already gone")
			return
		}
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("leave")
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(id)).Bool("room_deleted", res.Deleted).Msg("left")
	if res.Deleted {
		return
	}

	remaining := o.Rooms.MembersOf(id)
	out.sendAll(remaining, core.Message{Type: core.EventUserLeft, Data: core.UserRef{UserID: sid}})
	if res.NewHost != "" {
		metrics.HostChanges.Inc()
		out.sendAll(remaining, core.Message{Type: core.EventHostChanged, Data: core.HostChanged{NewHostID: res.NewHost}})
	}
}

func (o *Orchestrator) endCall(sid domain.ConnectionID, c core.EndCall, out *outbox) {
	conn, ok := o.Registry.Get(sid)
	if !ok || !conn.InRoom() || conn.CurrentRoom != c.MeetingID {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(c.MeetingID)).Msg("end call: not in meeting")
		o.reject(sid, c, msgNotInMeeting, out)
		return
	}
	room, ok := o.Rooms.Get(c.MeetingID)
	if !ok || room.Host != sid {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(c.MeetingID)).Msg("end call: not host")
		o.reject(sid, c, msgNotHost, out)
		return
	}

	members := room.MemberIDs()
	out.sendAll(members, core.Message{Type: core.EventCallEnded, Data: core.CallEnded{EndedBy: sid}})
	for _, m := range members {
		if mc, ok := o.Registry.Get(m); ok && mc.CurrentRoom == c.MeetingID {
			o.Registry.SetCurrentRoom(m, "")
		}
	}
	o.Rooms.DeleteRoom(c.MeetingID)
	metrics.CallsEnded.Inc()
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(c.MeetingID)).Int("members", len(members)).Msg("call ended by host")
}

// disconnect is idempotent: an unknown connection is ignored.
func (o *Orchestrator) disconnect(sid domain.ConnectionID, out *outbox) {
	conn, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	if conn.InRoom() {
		o.leaveRoom(sid, conn.CurrentRoom, out)
	}
	o.Registry.Unregister(sid)
}
