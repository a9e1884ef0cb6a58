// Package orch is the signaling router: it applies inbound commands to the
// connection registry and room store, one at a time, and computes the
// messages each transition emits.
package orch

import (
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

const eventQueueSize = 1024

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomStore
	Policy   app.Policy
	Reaper   *app.Reaper
	Out      core.Deliverer
	Clock    app.Clock

	events chan event
	done   chan struct{}
}

func New(reg *app.Registry, rooms *app.RoomStore, out core.Deliverer) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   app.SimplePolicy{},
		Out:      out,
		events:   make(chan event, eventQueueSize),
		done:     make(chan struct{}),
	}
}

// Apply runs one transition to completion and returns what it emits. It must
// only be called from the goroutine that owns the stores (Run, or a test).
func (o *Orchestrator) Apply(sid domain.ConnectionID, cmd core.Command) []core.Outbound {
	var out outbox
	switch c := cmd.(type) {
	case core.Connect:
		o.connect(sid, c, &out)
	case core.Join:
		o.join(sid, c, &out)
	case core.SendingSignal:
		o.sendingSignal(sid, c, &out)
	case core.ReturningSignal:
		o.returningSignal(sid, c, &out)
	case core.ToggleMute:
		o.toggleMute(sid, c, &out)
	case core.ToggleVideo:
		o.toggleVideo(sid, c, &out)
	case core.EndCall:
		o.endCall(sid, c, &out)
	case core.LeaveCall:
		o.leaveCall(sid, c, &out)
	case core.Disconnect:
		o.disconnect(sid, &out)
	case core.Ping:
		out.send(sid, core.Message{Type: core.EventPong})
	default:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msgf("unhandled command %T", cmd)
		return nil
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Name()).Inc()
	metrics.ActiveRooms.Set(float64(o.Rooms.Len()))
	metrics.ActiveConnections.Set(float64(o.Registry.Len()))
	return out.msgs
}

// reject replies to the sender only; no state has been touched.
func (o *Orchestrator) reject(sid domain.ConnectionID, cmd core.Command, text string, out *outbox) {
	metrics.CommandsRejected.WithLabelValues(cmd.Name()).Inc()
	out.send(sid, core.ErrorMessage(text))
}
