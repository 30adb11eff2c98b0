package app

import (
	"sync"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// PresenceTracker holds the ephemeral per-room set of typing users.
// Nothing here is persisted and nothing expires server-side; expiry is
// client-driven via stop-typing.
type PresenceTracker struct {
	mu     sync.Mutex
	typing map[domain.RoomID]map[domain.UserID]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{typing: make(map[domain.RoomID]map[domain.UserID]struct{})}
}

// Set marks the user as typing. Returns false when the user was already
// typing, so callers can skip the duplicate broadcast.
func (p *PresenceTracker) Set(roomID domain.RoomID, userID domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.typing[roomID]
	if !ok {
		set = make(map[domain.UserID]struct{})
		p.typing[roomID] = set
	}
	if _, ok := set[userID]; ok {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Clear removes the typing mark. Returns false when the user was not
// typing (no-op).
func (p *PresenceTracker) Clear(roomID domain.RoomID, userID domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.typing[roomID]
	if !ok {
		return false
	}
	if _, ok := set[userID]; !ok {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(p.typing, roomID)
	}
	return true
}

// ClearUser drops every typing mark the user holds and reports the
// rooms that changed, so the disconnect cascade can broadcast
// stop-typing there. Stale "is typing" state must never outlive the
// session.
func (p *PresenceTracker) ClearUser(userID domain.UserID) []domain.RoomID {
	p.mu.Lock()
	defer p.mu.Unlock()
	var cleared []domain.RoomID
	for roomID, set := range p.typing {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(p.typing, roomID)
		}
		cleared = append(cleared, roomID)
	}
	return cleared
}
