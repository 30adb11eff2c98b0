package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// SendMessage validates, persists and broadcasts one chat message.
// Priority is deliver-then-best-effort-persist: the append is issued
// before the broadcast but a persistence failure neither suppresses nor
// rolls back delivery — the sender gets a server-error event instead.
func (o *Orchestrator) SendMessage(ctx context.Context, sid core.SessionID, roomID domain.RoomID, text string) error {
	user, ok := o.Registry.IdentityOf(sid)
	if !ok {
		return domain.ErrUnauthorized
	}
	if text == "" {
		return domain.InvalidRequest("empty message")
	}
	if err := o.resolveRoom(ctx, roomID); err != nil {
		return err
	}
	if !o.Registry.InRoom(sid, roomID, false) {
		return domain.InvalidRequest("not a member of room")
	}

	room, err := o.Store.Room(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room fetch: %w", err)
	}
	now := time.Now().UTC()
	msg := domain.Message{
		RoomID:    roomID,
		Sender:    user.ID,
		Recipient: room.Other(user.ID),
		Text:      text,
		SentAt:    now,
	}
	if err := o.Store.AppendMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("room", string(roomID)).Msg("append message failed")
		o.sendTo(sid, core.EvtServerError, core.ServerError{Message: "message not persisted"})
	}

	// Everyone in the room gets the echo, the sender included, so the
	// client needs no optimistic local insert.
	res := o.ChatRooms.Broadcast(roomID, core.EvtReceiveMessage, core.ReceiveMessage{
		RoomID:    roomID,
		Sender:    user,
		Message:   text,
		Timestamp: now,
	}, "")
	o.applyPolicy(roomID, res)
	return nil
}
