// Package app wires the protocol core to the service layer: connection
// registry, authorization guards and the action dispatcher.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/core"
	"github.com/nickaroot/music-room/internal/domain"
)

type connEntry struct {
	EventID domain.EventID
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry tracks live connections: which room each one joined and how to
// cancel it. State is rebuilt from zero on process restart.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.SessionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[core.SessionID]*connEntry)}
}

func (r *Registry) Bind(sid core.SessionID, eventID domain.EventID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sid] = &connEntry{EventID: eventID, Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int64("event", int64(eventID)).Msg("bound connection")
}

// Unbind is safe to call on an unregistered connection.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound connection")
}

func (r *Registry) Get(sid core.SessionID) (domain.EventID, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[sid]
	if !ok {
		return 0, nil, false
	}
	return e.EventID, e.Session, true
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.entries[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
