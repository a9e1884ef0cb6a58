package app

import (
	"iter"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the Connection Registry: one session record per live transport
// connection. It is owned by the event loop and is not safe for concurrent use.
type Registry struct {
	clock    Clock
	sessions map[domain.ConnectionID]*domain.Connection
}

func NewRegistry(clock Clock) *Registry {
	return &Registry{
		clock:    clock,
		sessions: make(map[domain.ConnectionID]*domain.Connection),
	}
}

// Register creates a record with no current room. A duplicate id overwrites.
func (r *Registry) Register(sid domain.ConnectionID) domain.Connection {
	c := &domain.Connection{
		ID:          sid,
		UserID:      domain.UserID(sid),
		ConnectedAt: r.clock.now(),
	}
	r.sessions[sid] = c
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered connection")
	return *c
}

func (r *Registry) Get(sid domain.ConnectionID) (domain.Connection, bool) {
	c, ok := r.sessions[sid]
	if !ok {
		return domain.Connection{}, false
	}
	return *c, true
}

func (r *Registry) SetUser(sid domain.ConnectionID, uid domain.UserID) bool {
	c, ok := r.sessions[sid]
	if !ok || uid == "" {
		return false
	}
	c.UserID = uid
	return true
}

// SetCurrentRoom updates the weak room reference; an empty room clears it.
func (r *Registry) SetCurrentRoom(sid domain.ConnectionID, room domain.RoomID) bool {
	c, ok := r.sessions[sid]
	if !ok {
		return false
	}
	c.CurrentRoom = room
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("updated room")
	return true
}

func (r *Registry) Unregister(sid domain.ConnectionID) {
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unregistered connection")
}

func (r *Registry) Len() int { return len(r.sessions) }

// StaleConnections yields the ids for which isLive reports false. The sequence
// is lazy and can be ranged over repeatedly; it must not be ranged while the
// registry is being mutated.
func (r *Registry) StaleConnections(isLive func(domain.ConnectionID) bool) iter.Seq[domain.ConnectionID] {
	return func(yield func(domain.ConnectionID) bool) {
		for sid := range r.sessions {
			if isLive(sid) {
				continue
			}
			if !yield(sid) {
				return
			}
		}
	}
}
