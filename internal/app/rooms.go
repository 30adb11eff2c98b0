package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// Member is one session inside a room, as seen by snapshots.
type Member struct {
	SID  core.SessionID
	User *domain.User
}

type roomMember struct {
	user *domain.User
	conn core.SignalConnection
}

// room keeps its own lock so join/leave/broadcast on one room are
// linearized relative to each other without serializing across rooms.
// Join order is preserved: partner discovery depends on it.
type room struct {
	mu      sync.Mutex
	members map[core.SessionID]*roomMember
	order   []core.SessionID
}

// PublishResult reports delivery stats and backpressure to the policy layer.
type PublishResult struct {
	Sent    int
	Dropped []core.SessionID
}

// RoomTable maps a room id to the set of sessions currently subscribed.
// It owns membership only; it never touches persistence and never
// closes adapter-owned connections.
type RoomTable struct {
	name  string
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
}

func NewRoomTable(name string) *RoomTable {
	return &RoomTable{name: name, rooms: make(map[domain.RoomID]*room)}
}

func (t *RoomTable) get(id domain.RoomID, create bool) *room {
	t.mu.RLock()
	rm, ok := t.rooms[id]
	t.mu.RUnlock()
	if ok || !create {
		return rm
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if rm, ok = t.rooms[id]; ok {
		return rm
	}
	rm = &room{members: make(map[core.SessionID]*roomMember)}
	t.rooms[id] = rm
	return rm
}

// Join adds the session to the room. Idempotent: re-joining does not
// duplicate membership or disturb join order.
func (t *RoomTable) Join(id domain.RoomID, sid core.SessionID, user *domain.User, conn core.SignalConnection) {
	rm := t.get(id, true)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.members[sid]; ok {
		return
	}
	rm.members[sid] = &roomMember{user: user, conn: conn}
	rm.order = append(rm.order, sid)
	log.Info().Str("module", "app.rooms").Str("table", t.name).Str("room", string(id)).Str("sid", string(sid)).Msg("member joined")
}

// Leave removes membership. Idempotent. The room record itself stays in
// the table; an empty room reports zero members and costs one map entry.
func (t *RoomTable) Leave(id domain.RoomID, sid core.SessionID) {
	rm := t.get(id, false)
	if rm == nil {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.members[sid]; !ok {
		return
	}
	delete(rm.members, sid)
	for i, s := range rm.order {
		if s == sid {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.rooms").Str("table", t.name).Str("room", string(id)).Str("sid", string(sid)).Msg("member left")
}

// MembersOf returns a snapshot of the room's members in join order.
func (t *RoomTable) MembersOf(id domain.RoomID) []Member {
	rm := t.get(id, false)
	if rm == nil {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]Member, 0, len(rm.order))
	for _, sid := range rm.order {
		out = append(out, Member{SID: sid, User: rm.members[sid].user})
	}
	return out
}

func (t *RoomTable) Count(id domain.RoomID) int {
	rm := t.get(id, false)
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

// Broadcast delivers the event to every current member except exclude
// (pass "" to include everyone). The room lock is held across the whole
// fan-out, so broadcasts on one room reach members in issue order.
func (t *RoomTable) Broadcast(id domain.RoomID, event string, payload any, exclude core.SessionID) PublishResult {
	res := PublishResult{}
	rm := t.get(id, false)
	if rm == nil {
		return res
	}
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("event", event).Msg("broadcast encode failed")
		return res
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, sid := range rm.order {
		if sid == exclude {
			continue
		}
		if err := rm.members[sid].conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.Sent++
	}
	log.Debug().Str("module", "app.rooms").Str("table", t.name).Str("room", string(id)).Str("event", event).Int("sent", res.Sent).Int("dropped", len(res.Dropped)).Msg("broadcast")
	return res
}
