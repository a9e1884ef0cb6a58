package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("orchestrator stopped")

type event interface{ isEvent() }

type commandEvent struct {
	sid domain.ConnectionID
	cmd core.Command
}

type snapshotEvent struct {
	reply chan core.Snapshot
}

func (commandEvent) isEvent()  {}
func (snapshotEvent) isEvent() {}

// Run owns the registry and room store until ctx is done. Everything that
// touches them goes through the event queue.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)

	var tick <-chan time.Time
	if o.Reaper != nil {
		t := time.NewTicker(o.Reaper.SweepInterval())
		defer t.Stop()
		tick = t.C
	}
	log.Info().Str("module", "orch").Msg("event loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("event loop stopped")
			return ctx.Err()
		case ev := <-o.events:
			o.handle(ev)
		case <-tick:
			o.deliver(o.Sweep(o.now()))
		}
	}
}

func (o *Orchestrator) handle(ev event) {
	switch e := ev.(type) {
	case commandEvent:
		o.deliver(o.Apply(e.sid, e.cmd))
	case snapshotEvent:
		e.reply <- core.Snapshot{
			ActiveRooms:       o.Rooms.Len(),
			ActiveConnections: o.Registry.Len(),
			Rooms:             o.Rooms.List(),
		}
	}
}

// Submit queues cmd for sid. It blocks only while the queue is full.
func (o *Orchestrator) Submit(ctx context.Context, sid domain.ConnectionID, cmd core.Command) error {
	return o.enqueue(ctx, commandEvent{sid: sid, cmd: cmd})
}

func (o *Orchestrator) Snapshot(ctx context.Context) (core.Snapshot, error) {
	reply := make(chan core.Snapshot, 1)
	if err := o.enqueue(ctx, snapshotEvent{reply: reply}); err != nil {
		return core.Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-o.done:
		return core.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	}
}

func (o *Orchestrator) enqueue(ctx context.Context, ev event) error {
	select {
	case o.events <- ev:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep evicts what the reaper selects. Orphaned connections leave through
// the regular disconnect path so their peers are told.
func (o *Orchestrator) Sweep(now time.Time) []core.Outbound {
	if o.Reaper == nil {
		return nil
	}
	s := o.Reaper.Collect(now)
	if s.Empty() {
		return nil
	}

	var out []core.Outbound
	for _, sid := range s.Connections {
		out = append(out, o.Apply(sid, core.Disconnect{})...)
		metrics.Reaped.WithLabelValues("connection").Inc()
	}
	for _, id := range s.Rooms {
		if room, ok := o.Rooms.Get(id); !ok || !room.Empty() {
			continue
		}
		o.Rooms.DeleteRoom(id)
		metrics.Reaped.WithLabelValues("room").Inc()
	}
	metrics.ActiveRooms.Set(float64(o.Rooms.Len()))
	log.Info().
		Str("module", "orch").
		Int("rooms", len(s.Rooms)).
		Int("connections", len(s.Connections)).
		Msg("reaper sweep")
	return out
}

// deliver hands every message to the transport without blocking. A full
// buffer is resolved by the backpressure policy.
func (o *Orchestrator) deliver(msgs []core.Outbound) {
	if o.Out == nil {
		return
	}
	for _, m := range msgs {
		err := o.Out.Deliver(m.To, m.Message)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrBackpressure):
			o.onBackpressure(m)
		case errors.Is(err, core.ErrConnectionGone):
			log.Debug().Str("module", "orch").Str("sid", string(m.To)).Str("type", m.Message.Type).Msg("recipient gone")
		default:
			log.Error().Err(err).Str("module", "orch").Str("sid", string(m.To)).Str("type", m.Message.Type).Msg("deliver failed")
		}
	}
}

func (o *Orchestrator) onBackpressure(m core.Outbound) {
	action := app.KickMember
	if o.Policy != nil {
		action = o.Policy.OnBackPressure(m.To, m.Message)
	}
	switch action {
	case app.KickMember:
		metrics.Backpressure.WithLabelValues("kick").Inc()
		log.Warn().Str("module", "orch").Str("sid", string(m.To)).Str("type", m.Message.Type).Msg("send buffer full, kicking")
		o.Out.Kick(m.To)
	case app.DropFrame:
		metrics.Backpressure.WithLabelValues("drop").Inc()
		log.Warn().Str("module", "orch").Str("sid", string(m.To)).Str("type", m.Message.Type).Msg("send buffer full, frame dropped")
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}
