package signal

import (
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Hub maps connection ids to live sockets. It is the event loop's
// core.Deliverer and the reaper's liveness probe.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]core.SignalConnection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnectionID]core.SignalConnection)}
}

func (h *Hub) Add(sid domain.ConnectionID, c core.SignalConnection) {
	h.mu.Lock()
	h.conns[sid] = c
	h.mu.Unlock()
}

// Remove only drops sid if it still maps to c.
func (h *Hub) Remove(sid domain.ConnectionID, c core.SignalConnection) {
	h.mu.Lock()
	if cur, ok := h.conns[sid]; ok && cur == c {
		delete(h.conns, sid)
	}
	h.mu.Unlock()
}

func (h *Hub) get(sid domain.ConnectionID) (core.SignalConnection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[sid]
	return c, ok
}

func (h *Hub) Deliver(to domain.ConnectionID, msg core.Message) error {
	c, ok := h.get(to)
	if !ok {
		return core.ErrConnectionGone
	}
	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	return c.TrySend(frame)
}

func (h *Hub) Kick(sid domain.ConnectionID) {
	c, ok := h.get(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("kick")
	c.Close()
}

func (h *Hub) IsLive(sid domain.ConnectionID) bool {
	_, ok := h.get(sid)
	return ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
