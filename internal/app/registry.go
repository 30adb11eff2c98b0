package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

type sessionEntry struct {
	conn  core.SignalConnection
	user  *domain.User
	rooms map[domain.RoomID]struct{}
	calls map[domain.RoomID]struct{}
}

// SessionSnapshot is what Unregister hands back so the orchestrator can
// cascade cleanup into rooms, presence and negotiation state.
type SessionSnapshot struct {
	User  *domain.User
	Rooms []domain.RoomID
	Calls []domain.RoomID
}

// Registry tracks live connections and the verified identity bound to
// each. The identity is set exactly once, at Register time; there is no
// path to a registered session without one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Register(conn core.SignalConnection, user *domain.User) core.SessionID {
	sid := core.SessionID(uuid.NewString())
	r.mu.Lock()
	r.sessions[sid] = &sessionEntry{
		conn:  conn,
		user:  user,
		rooms: make(map[domain.RoomID]struct{}),
		calls: make(map[domain.RoomID]struct{}),
	}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("registered session")
	return sid
}

// Unregister removes the session and reports what it was part of.
// Idempotent: a second call returns ok=false and does nothing.
func (r *Registry) Unregister(sid core.SessionID) (SessionSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return SessionSnapshot{}, false
	}
	delete(r.sessions, sid)
	snap := SessionSnapshot{User: e.user}
	for id := range e.rooms {
		snap.Rooms = append(snap.Rooms, id)
	}
	for id := range e.calls {
		snap.Calls = append(snap.Calls, id)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unregistered session")
	return snap, true
}

func (r *Registry) IdentityOf(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.user, true
	}
	return nil, false
}

func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.conn, true
	}
	return nil, false
}

func (r *Registry) TrackJoin(sid core.SessionID, roomID domain.RoomID, call bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if call {
		e.calls[roomID] = struct{}{}
	} else {
		e.rooms[roomID] = struct{}{}
	}
}

func (r *Registry) TrackLeave(sid core.SessionID, roomID domain.RoomID, call bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if call {
		delete(e.calls, roomID)
	} else {
		delete(e.rooms, roomID)
	}
}

// InRoom reports whether the session joined the chat room (call=false)
// or the call room (call=true).
func (r *Registry) InRoom(sid core.SessionID, roomID domain.RoomID, call bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if call {
		_, ok = e.calls[roomID]
	} else {
		_, ok = e.rooms[roomID]
	}
	return ok
}
