package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// Orchestrator wires the relay components and runs every inbound event
// through the same linear pipeline: resolve identity, resolve room,
// authorize, mutate, broadcast. Each stage short-circuits with a coded
// error the transport reports back to the caller.
type Orchestrator struct {
	Registry  *Registry
	ChatRooms *RoomTable
	CallRooms *RoomTable
	Presence  *PresenceTracker
	Calls     *CallCoordinator
	Store     core.ChatStore
	Policy    Policy
}

func NewOrchestrator(store core.ChatStore) *Orchestrator {
	callRooms := NewRoomTable("call")
	o := &Orchestrator{
		Registry:  NewRegistry(),
		ChatRooms: NewRoomTable("chat"),
		CallRooms: callRooms,
		Presence:  NewPresenceTracker(),
		Store:     store,
		Policy:    KickSlowPolicy{},
	}
	o.Calls = NewCallCoordinator(callRooms, o.sendTo)
	return o
}

// Connect binds a verified identity to a fresh session. The gate has
// already run; no anonymous sessions reach this point.
func (o *Orchestrator) Connect(conn core.SignalConnection, user *domain.User) core.SessionID {
	return o.Registry.Register(conn, user)
}

// Disconnect cascades cleanup: typing marks, chat rooms, call rooms.
// Idempotent, like the transport-level close that triggers it.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	snap, ok := o.Registry.Unregister(sid)
	if !ok {
		return
	}
	for _, roomID := range o.Presence.ClearUser(snap.User.ID) {
		o.ChatRooms.Broadcast(roomID, core.EvtUserStoppedTyping, core.TypingState{RoomID: roomID, UserID: snap.User.ID}, sid)
	}
	for _, roomID := range snap.Rooms {
		o.ChatRooms.Leave(roomID, sid)
	}
	for _, roomID := range snap.Calls {
		remaining := o.Calls.Leave(roomID, sid)
		o.notifyPeerGone(roomID, snap.User.ID, remaining)
	}
	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Msg("session cleaned up")
}

// JoinRoom subscribes the session to a chat room, announces it, and
// fires the mark-read trigger for the joining identity.
func (o *Orchestrator) JoinRoom(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
	user, ok := o.Registry.IdentityOf(sid)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := o.resolveRoom(ctx, roomID); err != nil {
		return err
	}
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return domain.ErrUnauthorized
	}

	o.ChatRooms.Join(roomID, sid, user, conn)
	o.Registry.TrackJoin(sid, roomID, false)
	res := o.ChatRooms.Broadcast(roomID, core.EvtUserJoined, core.UserJoined{RoomID: roomID, User: user}, sid)
	o.applyPolicy(roomID, res)

	if err := o.Store.MarkRead(ctx, roomID, user.ID); err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("room", string(roomID)).Msg("mark read failed")
		return nil
	}
	o.ChatRooms.Broadcast(roomID, core.EvtMessagesRead, core.MessagesRead{RoomID: roomID, UserID: user.ID}, "")
	return nil
}

// LeaveRoom drops chat room membership. Idempotent; no notification is
// mandated for chat rooms.
func (o *Orchestrator) LeaveRoom(sid core.SessionID, roomID domain.RoomID) error {
	if _, ok := o.Registry.IdentityOf(sid); !ok {
		return domain.ErrUnauthorized
	}
	if roomID == "" {
		return domain.InvalidRequest("missing room id")
	}
	o.ChatRooms.Leave(roomID, sid)
	o.Registry.TrackLeave(sid, roomID, false)
	return nil
}

// Typing marks the session's user as typing in the room. Duplicate
// marks are no-ops and produce no second broadcast.
func (o *Orchestrator) Typing(sid core.SessionID, roomID domain.RoomID) error {
	user, err := o.authorizeMember(sid, roomID)
	if err != nil {
		return err
	}
	if o.Presence.Set(roomID, user.ID) {
		res := o.ChatRooms.Broadcast(roomID, core.EvtUserTyping, core.TypingState{RoomID: roomID, UserID: user.ID}, sid)
		o.applyPolicy(roomID, res)
	}
	return nil
}

// StopTyping clears the typing mark; clearing an absent mark is a no-op.
func (o *Orchestrator) StopTyping(sid core.SessionID, roomID domain.RoomID) error {
	user, err := o.authorizeMember(sid, roomID)
	if err != nil {
		return err
	}
	if o.Presence.Clear(roomID, user.ID) {
		res := o.ChatRooms.Broadcast(roomID, core.EvtUserStoppedTyping, core.TypingState{RoomID: roomID, UserID: user.ID}, sid)
		o.applyPolicy(roomID, res)
	}
	return nil
}

// resolveRoom validates the room id against the persisted entity.
func (o *Orchestrator) resolveRoom(ctx context.Context, roomID domain.RoomID) error {
	if roomID == "" {
		return domain.InvalidRequest("missing room id")
	}
	exists, err := o.Store.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room lookup: %w", err)
	}
	if !exists {
		return domain.ErrRoomNotFound
	}
	return nil
}

// authorizeMember is the common identity + chat-membership stage.
func (o *Orchestrator) authorizeMember(sid core.SessionID, roomID domain.RoomID) (*domain.User, error) {
	user, ok := o.Registry.IdentityOf(sid)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if roomID == "" {
		return nil, domain.InvalidRequest("missing room id")
	}
	if !o.Registry.InRoom(sid, roomID, false) {
		return nil, domain.InvalidRequest("not a member of room")
	}
	return user, nil
}

func (o *Orchestrator) notifyPeerGone(roomID domain.RoomID, userID domain.UserID, remaining []Member) {
	for _, m := range remaining {
		o.sendTo(m.SID, core.EvtUserDisconnected, core.UserDisconnected{RoomID: roomID, UserID: userID})
	}
}

// sendTo delivers a single event to one session, best-effort.
func (o *Orchestrator) sendTo(sid core.SessionID, event string, payload any) {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return
	}
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("encode failed")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("event", event).Msg("dropped direct event")
	}
}

func (o *Orchestrator) applyPolicy(roomID domain.RoomID, res PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, sid := range res.Dropped {
		if o.Policy.OnBackpressure(roomID, sid) != KickSession {
			continue
		}
		if conn, ok := o.Registry.Conn(sid); ok {
			log.Warn().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("kicking slow member")
			conn.Close()
		}
	}
}
