package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// CallState is the conceptual negotiation state of a call room.
type CallState int

const (
	StateEmpty CallState = iota
	StateOnePeer
	StateNegotiating
	StateConnected
)

// negotiation tracks one round of offer/answer for a call room.
// At most one outstanding offer per round: the first mover owns it.
type negotiation struct {
	initiator core.SessionID // the joiner that found a partner present
	offerFrom core.SessionID // who actually sent the first offer
	answered  bool
}

// Notifier delivers a single event to one session; the orchestrator
// plugs its direct-send here.
type Notifier func(sid core.SessionID, event string, payload any)

// CallCoordinator layers the WebRTC negotiation protocol over a room
// table. Call rooms are conceptually 2-party: partner discovery picks
// the earliest other member, and the side that discovers an existing
// peer is the one that initiates the offer. The pre-existing peer waits.
type CallCoordinator struct {
	mu     sync.Mutex
	rooms  *RoomTable
	notify Notifier
	negs   map[domain.RoomID]*negotiation
}

func NewCallCoordinator(rooms *RoomTable, notify Notifier) *CallCoordinator {
	return &CallCoordinator{rooms: rooms, notify: notify, negs: make(map[domain.RoomID]*negotiation)}
}

// Join adds the session to the call room, tells the joiner who its
// partner is (null means wait) and refreshes the pre-existing peer with
// the joiner's identity, all in one atomic step. Serialized per
// coordinator so two near-simultaneous joins cannot both observe an
// empty room and both become initiator.
func (c *CallCoordinator) Join(roomID domain.RoomID, sid core.SessionID, user *domain.User, conn core.SignalConnection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var partner *Member
	for _, m := range c.rooms.MembersOf(roomID) {
		if m.SID != sid {
			partner = &m
			break
		}
	}
	c.rooms.Join(roomID, sid, user, conn)

	reply := core.ChattingPartner{RoomID: roomID}
	if partner != nil {
		reply.ChatPartner = partner.User
		if _, ok := c.negs[roomID]; !ok {
			// The joiner found a peer already present: it initiates.
			c.negs[roomID] = &negotiation{initiator: sid}
			log.Info().Str("module", "app.signaling").Str("room", string(roomID)).Str("initiator", string(sid)).Msg("negotiation started")
		}
		c.notify(partner.SID, core.EvtChattingPartner, core.ChattingPartner{RoomID: roomID, ChatPartner: user})
	}
	c.notify(sid, core.EvtChattingPartner, reply)
}

// AllowOffer decides whether an inbound offer is routed or dropped.
// Only one offer per round is honored; an offer arriving after another
// session already sent one is glare and is silently dropped rather than
// rejected with an error.
func (c *CallCoordinator) AllowOffer(roomID domain.RoomID, sid core.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	neg, ok := c.negs[roomID]
	if !ok {
		neg = &negotiation{initiator: sid}
		c.negs[roomID] = neg
	}
	if neg.offerFrom != "" && neg.offerFrom != sid {
		log.Debug().Str("module", "app.signaling").Str("room", string(roomID)).Str("sid", string(sid)).Str("initiator", string(neg.initiator)).Msg("glare: dropping competing offer")
		return false
	}
	neg.offerFrom = sid
	return true
}

// MarkAnswered records that the round completed a well-formed
// offer/answer exchange.
func (c *CallCoordinator) MarkAnswered(roomID domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if neg, ok := c.negs[roomID]; ok {
		neg.answered = true
	}
}

// Leave removes the session and resets the room's negotiation round.
// Returns the remaining members so the caller can notify them; the
// survivor is conceptually back to ONE_PEER awaiting a new partner.
func (c *CallCoordinator) Leave(roomID domain.RoomID, sid core.SessionID) []Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms.Leave(roomID, sid)
	delete(c.negs, roomID)
	return c.rooms.MembersOf(roomID)
}

// State derives the conceptual state for a room. Mainly observability
// and test support; routing decisions use the negotiation record.
func (c *CallCoordinator) State(roomID domain.RoomID) CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.rooms.Count(roomID)
	switch {
	case n == 0:
		return StateEmpty
	case n == 1:
		return StateOnePeer
	}
	if neg, ok := c.negs[roomID]; ok && neg.answered {
		return StateConnected
	}
	return StateNegotiating
}
