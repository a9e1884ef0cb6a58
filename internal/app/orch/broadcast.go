package orch

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// outbox collects the messages of one transition in emission order.
type outbox struct {
	msgs []core.Outbound
}

func (b *outbox) send(to domain.ConnectionID, msg core.Message) {
	b.msgs = append(b.msgs, core.Outbound{To: to, Message: msg})
}

func (b *outbox) sendAll(to []domain.ConnectionID, msg core.Message) {
	for _, id := range to {
		b.send(id, msg)
	}
}

// othersIn returns the current members of room except sid. It must be called
// after the mutation so a member removed by it is never notified.
func (o *Orchestrator) othersIn(room domain.RoomID, sid domain.ConnectionID) []domain.ConnectionID {
	members := o.Rooms.MembersOf(room)
	out := make([]domain.ConnectionID, 0, len(members))
	for _, id := range members {
		if id != sid {
			out = append(out, id)
		}
	}
	return out
}
