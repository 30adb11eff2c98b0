package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("announces the joiner to existing members", func(t *testing.T) {
		o, st := setup(t)
		roomID := mkRoom(t, st, "u1", "u2")
		sidA, connA := connect(t, o, "u1", "alice")
		sidB, _ := connect(t, o, "u2", "bob")
		require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
		require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

		joined := eventsOf[core.UserJoined](t, connA, core.EvtUserJoined)
		require.Len(t, joined, 1)
		assert.Equal(t, domain.UserID("u2"), joined[0].User.ID)
	})

	t.Run("unknown room is room-not-found", func(t *testing.T) {
		o, _ := setup(t)
		sid, _ := connect(t, o, "u1", "alice")
		assert.ErrorIs(t, o.JoinRoom(ctx, sid, "ghost"), domain.ErrRoomNotFound)
	})

	t.Run("missing room id is invalid", func(t *testing.T) {
		o, _ := setup(t)
		sid, _ := connect(t, o, "u1", "alice")
		requireCode(t, o.JoinRoom(ctx, sid, ""), domain.CodeInvalidRequest)
	})
}

func TestDisconnectCascade(t *testing.T) {
	ctx := context.Background()
	o, st := setup(t)
	chatRoom := mkRoom(t, st, "u1", "u2")
	callRoom := mkRoom(t, st, "u1", "u3")

	sidA, _ := connect(t, o, "u1", "alice")
	sidB, connB := connect(t, o, "u2", "bob")
	sidC, connC := connect(t, o, "u3", "carol")

	require.NoError(t, o.JoinRoom(ctx, sidA, chatRoom))
	require.NoError(t, o.JoinRoom(ctx, sidB, chatRoom))
	require.NoError(t, o.Typing(sidA, chatRoom))
	require.NoError(t, o.JoinCall(ctx, sidA, callRoom))
	require.NoError(t, o.JoinCall(ctx, sidC, callRoom))

	o.Disconnect(sidA)
	o.Disconnect(sidA) // safe to repeat

	assert.Equal(t, 1, o.ChatRooms.Count(chatRoom))
	assert.Equal(t, 1, o.CallRooms.Count(callRoom))

	stopped := eventsOf[core.TypingState](t, connB, core.EvtUserStoppedTyping)
	require.Len(t, stopped, 1)
	assert.Equal(t, domain.UserID("u1"), stopped[0].UserID)

	gone := eventsOf[core.UserDisconnected](t, connC, core.EvtUserDisconnected)
	require.Len(t, gone, 1)
	assert.Equal(t, domain.UserID("u1"), gone[0].UserID)

	// A fully-departed session can no longer act.
	assert.ErrorIs(t, o.SendMessage(ctx, sidA, chatRoom, "hi"), domain.ErrUnauthorized)
}

func TestBackpressureKicksSlowMember(t *testing.T) {
	ctx := context.Background()
	o, st := setup(t)
	roomID := mkRoom(t, st, "u1", "u2")
	sidA, _ := connect(t, o, "u1", "alice")
	sidB, connB := connect(t, o, "u2", "bob")
	require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
	require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

	connB.full = true
	require.NoError(t, o.SendMessage(ctx, sidA, roomID, "hi"))

	assert.True(t, connB.isClosed())
}

func TestFailureIsolation(t *testing.T) {
	// One session's rejected event must not disturb another session's state.
	ctx := context.Background()
	o, st := setup(t)
	roomID := mkRoom(t, st, "u1", "u2")
	sidA, _ := connect(t, o, "u1", "alice")
	sidB, connB := connect(t, o, "u2", "bob")
	require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
	require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

	requireCode(t, o.SendMessage(ctx, sidA, roomID, ""), domain.CodeInvalidRequest)
	assert.ErrorIs(t, o.JoinRoom(ctx, sidA, "ghost"), domain.ErrRoomNotFound)

	require.NoError(t, o.SendMessage(ctx, sidA, roomID, "still here"))
	got := eventsOf[core.ReceiveMessage](t, connB, core.EvtReceiveMessage)
	require.Len(t, got, 1)
	assert.Equal(t, "still here", got[0].Message)
}
