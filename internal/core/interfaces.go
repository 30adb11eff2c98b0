package core

import (
	"context"
	"errors"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// Frame is one encoded wire message.
type Frame []byte

// SessionID identifies a single live connection, not a user. The same
// user connecting twice holds two session ids.
type SessionID string

// ErrBackpressure is returned by TrySend when the peer's send buffer is
// full. The policy layer decides what happens to the slow member.
var ErrBackpressure = errors.New("send buffer full")

// SignalConnection abstracts the messaging transport of one session.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ChatStore is the external persistence collaborator. The relay treats
// every call as opaque: it validates rooms through it and hands off
// message writes, never reading committed state back before broadcast.
type ChatStore interface {
	FindOrCreateRoom(ctx context.Context, a, b domain.UserID) (domain.RoomID, error)
	RoomExists(ctx context.Context, id domain.RoomID) (bool, error)
	Room(ctx context.Context, id domain.RoomID) (domain.Room, error)
	AppendMessage(ctx context.Context, msg domain.Message) error
	MarkRead(ctx context.Context, roomID domain.RoomID, recipient domain.UserID) error
	UnreadCount(ctx context.Context, recipient domain.UserID) (int, error)
}

// Verifier is the authentication gate, invoked once per connection
// attempt. The relay trusts its result and never performs login itself.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}
