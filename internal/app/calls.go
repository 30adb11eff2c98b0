package app

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// JoinCall enters a call room. The joiner learns its partner (or null,
// meaning wait); a pre-existing peer gets a refreshed partner event and
// a join notification so both sides converge on the same pairing.
func (o *Orchestrator) JoinCall(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
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

	o.Calls.Join(roomID, sid, user, conn)
	o.Registry.TrackJoin(sid, roomID, true)

	res := o.CallRooms.Broadcast(roomID, core.EvtUserJoined, core.UserJoined{RoomID: roomID, User: user}, sid)
	o.applyPolicy(roomID, res)
	return nil
}

// LeaveCall exits the call room, resets its negotiation round and tells
// any remaining peer its partner is gone. Idempotent.
func (o *Orchestrator) LeaveCall(sid core.SessionID, roomID domain.RoomID) error {
	user, ok := o.Registry.IdentityOf(sid)
	if !ok {
		return domain.ErrUnauthorized
	}
	if roomID == "" {
		return domain.InvalidRequest("missing room id")
	}
	if !o.Registry.InRoom(sid, roomID, true) {
		return nil
	}
	remaining := o.Calls.Leave(roomID, sid)
	o.Registry.TrackLeave(sid, roomID, true)
	o.notifyPeerGone(roomID, user.ID, remaining)
	return nil
}

// Offer routes an SDP offer to the other member(s) of the call room.
// A competing offer during an open round is glare: dropped, not an error.
func (o *Orchestrator) Offer(ctx context.Context, sid core.SessionID, roomID domain.RoomID, sdp webrtc.SessionDescription) error {
	user, err := o.authorizeCaller(ctx, sid, roomID)
	if err != nil {
		return err
	}
	if !o.Calls.AllowOffer(roomID, sid) {
		return nil
	}
	res := o.CallRooms.Broadcast(roomID, core.EvtOffer, core.OfferOut{RoomID: roomID, From: user.ID, Offer: sdp}, sid)
	o.applyPolicy(roomID, res)
	return nil
}

// Answer routes an SDP answer back; a well-formed flow is now connected.
func (o *Orchestrator) Answer(ctx context.Context, sid core.SessionID, roomID domain.RoomID, sdp webrtc.SessionDescription) error {
	user, err := o.authorizeCaller(ctx, sid, roomID)
	if err != nil {
		return err
	}
	o.Calls.MarkAnswered(roomID)
	res := o.CallRooms.Broadcast(roomID, core.EvtAnswer, core.AnswerOut{RoomID: roomID, From: user.ID, Answer: sdp}, sid)
	o.applyPolicy(roomID, res)
	return nil
}

// Candidate routes ICE candidates regardless of negotiation state; the
// receiving client queues them until it has a remote description.
func (o *Orchestrator) Candidate(ctx context.Context, sid core.SessionID, roomID domain.RoomID, cand webrtc.ICECandidateInit) error {
	user, err := o.authorizeCaller(ctx, sid, roomID)
	if err != nil {
		return err
	}
	res := o.CallRooms.Broadcast(roomID, core.EvtICECandidate, core.CandidateOut{RoomID: roomID, From: user.ID, Candidate: cand}, sid)
	o.applyPolicy(roomID, res)
	log.Debug().Str("module", "app.calls").Str("room", string(roomID)).Str("sid", string(sid)).Msg("candidate routed")
	return nil
}

// authorizeCaller is the identity + call-membership stage for signaling
// events. A non-member in a known room is invalid; an unknown room is
// room-not-found.
func (o *Orchestrator) authorizeCaller(ctx context.Context, sid core.SessionID, roomID domain.RoomID) (*domain.User, error) {
	user, ok := o.Registry.IdentityOf(sid)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if roomID == "" {
		return nil, domain.InvalidRequest("missing room id")
	}
	if o.Registry.InRoom(sid, roomID, true) {
		return user, nil
	}
	if err := o.resolveRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return nil, domain.InvalidRequest("not in call room")
}
