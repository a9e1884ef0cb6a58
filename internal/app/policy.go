package app

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(sid domain.ConnectionID, msg core.Message) BackpressureAction
}

// SimplePolicy kicks any connection that cannot keep up; the peer reconnects
// and rejoins.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ConnectionID, core.Message) BackpressureAction {
	return KickMember
}

// LenientPolicy drops frames except those a peer cannot recover from.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(_ domain.ConnectionID, msg core.Message) BackpressureAction {
	switch msg.Type {
	case core.EventReceivingSignal, core.EventReceivingReturnedSignal, core.EventCallEnded, core.EventHostChanged:
		return KickMember
	}
	return DropFrame
}
