package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	directoryTimeout = 3 * time.Second

	msgMeetingNotFound = "Meeting not found"
	msgDirectoryDown   = "Failed to join meeting"
)

// admitJoin checks the meeting directory before a join reaches the event
// loop. It answers the client itself when the join is refused.
func (ctl *SignalWSController) admitJoin(ctx context.Context, sid domain.ConnectionID, conn *WsSignalConn, j core.Join) bool {
	if ctl.Directory == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, directoryTimeout)
	defer cancel()

	_, err := ctl.Directory.GetMeetingByURL(ctx, string(j.MeetingID))
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrMeetingNotFound):
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("room", string(j.MeetingID)).Msg("join: meeting not found")
		ctl.reply(sid, conn, core.ErrorMessage(msgMeetingNotFound))
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(j.MeetingID)).Msg("join: directory lookup")
		ctl.reply(sid, conn, core.ErrorMessage(msgDirectoryDown))
	}
	return false
}

func (ctl *SignalWSController) reply(sid domain.ConnectionID, conn *WsSignalConn, msg core.Message) {
	frame, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply encode")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("reply dropped")
	}
}
