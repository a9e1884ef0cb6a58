package orch

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

// sendingSignal forwards an opaque offer/candidate to UserToSignal when the
// sender, the caller and the target all sit in the same room.
func (o *Orchestrator) sendingSignal(sid domain.ConnectionID, c core.SendingSignal, out *outbox) {
	sender, okS := o.Registry.Get(sid)
	caller, okC := o.Registry.Get(c.CallerID)
	target, okT := o.Registry.Get(c.UserToSignal)
	if !okS || !okC || !okT {
		o.dropSignal(sid, c.CallerID, c.UserToSignal, metrics.DropUnknownConnection)
		return
	}
	if !caller.InRoom() || caller.CurrentRoom != target.CurrentRoom || sender.CurrentRoom != caller.CurrentRoom {
		o.dropSignal(sid, c.CallerID, c.UserToSignal, metrics.DropRoomMismatch)
		return
	}

	metrics.SignalsRelayed.WithLabelValues("sending").Inc()
	out.send(c.UserToSignal, core.Message{Type: core.EventReceivingSignal, Data: core.ReceivingSignal{
		Signal:   c.Signal,
		CallerID: c.CallerID,
	}})
}

// returningSignal answers back to CallerID. The room compared is the
// sender's current one, as seen when the answer arrives.
func (o *Orchestrator) returningSignal(sid domain.ConnectionID, c core.ReturningSignal, out *outbox) {
	sender, okS := o.Registry.Get(sid)
	caller, okC := o.Registry.Get(c.CallerID)
	if !okS || !okC {
		o.dropSignal(sid, sid, c.CallerID, metrics.DropUnknownConnection)
		return
	}
	if !sender.InRoom() || sender.CurrentRoom != caller.CurrentRoom {
		o.dropSignal(sid, sid, c.CallerID, metrics.DropRoomMismatch)
		return
	}

	metrics.SignalsRelayed.WithLabelValues("returning").Inc()
	out.send(c.CallerID, core.Message{Type: core.EventReceivingReturnedSignal, Data: core.ReceivingReturnedSignal{
		Signal: c.Signal,
		ID:     sid,
	}})
}

// dropSignal never answers: a mismatch is almost always a peer that just left.
func (o *Orchestrator) dropSignal(sid, from, to domain.ConnectionID, reason string) {
	metrics.SignalsDropped.WithLabelValues(reason).Inc()
	log.Warn().
		Str("module", "orch").
		Str("sid", string(sid)).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("reason", reason).
		Msg("signal dropped")
}
