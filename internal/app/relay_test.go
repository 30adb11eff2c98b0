package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/store"
)

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message is invalid and touches nothing", func(t *testing.T) {
		o, st := setup(t)
		roomID := mkRoom(t, st, "u1", "u2")
		sid, conn := connect(t, o, "u1", "alice")
		require.NoError(t, o.JoinRoom(ctx, sid, roomID))

		err := o.SendMessage(ctx, sid, roomID, "")
		requireCode(t, err, domain.CodeInvalidRequest)
		assert.Empty(t, st.Messages(roomID))
		assert.Empty(t, eventsOf[core.ReceiveMessage](t, conn, core.EvtReceiveMessage))
	})

	t.Run("unknown room is room-not-found", func(t *testing.T) {
		o, _ := setup(t)
		sid, _ := connect(t, o, "u1", "alice")
		err := o.SendMessage(ctx, sid, "nope", "hi")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("sender must have joined the room", func(t *testing.T) {
		o, st := setup(t)
		roomID := mkRoom(t, st, "u1", "u2")
		sid, _ := connect(t, o, "u1", "alice")
		err := o.SendMessage(ctx, sid, roomID, "hi")
		requireCode(t, err, domain.CodeInvalidRequest)
	})

	t.Run("both members receive the echo and the append is recorded", func(t *testing.T) {
		o, st := setup(t)
		roomID := mkRoom(t, st, "u1", "u2")
		sidA, connA := connect(t, o, "u1", "alice")
		sidB, connB := connect(t, o, "u2", "bob")
		require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
		require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

		require.NoError(t, o.SendMessage(ctx, sidA, roomID, "hi"))

		msgs := st.Messages(roomID)
		require.Len(t, msgs, 1)
		assert.Equal(t, domain.UserID("u1"), msgs[0].Sender)
		assert.Equal(t, domain.UserID("u2"), msgs[0].Recipient)
		assert.Equal(t, "hi", msgs[0].Text)
		assert.False(t, msgs[0].Read)

		for _, conn := range []*fakeConn{connA, connB} {
			got := eventsOf[core.ReceiveMessage](t, conn, core.EvtReceiveMessage)
			require.Len(t, got, 1)
			assert.Equal(t, domain.UserID("u1"), got[0].Sender.ID)
			assert.Equal(t, "hi", got[0].Message)
		}
	})

	t.Run("persistence failure still delivers and warns the sender", func(t *testing.T) {
		mem := store.NewMemoryStore()
		roomID, err := mem.FindOrCreateRoom(ctx, "u1", "u2")
		require.NoError(t, err)
		o := app.NewOrchestrator(&failingAppendStore{ChatStore: mem})

		sidA, connA := connect(t, o, "u1", "alice")
		sidB, connB := connect(t, o, "u2", "bob")
		require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
		require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

		require.NoError(t, o.SendMessage(ctx, sidA, roomID, "hi"))

		assert.Len(t, eventsOf[core.ReceiveMessage](t, connB, core.EvtReceiveMessage), 1)
		assert.Len(t, eventsOf[core.ServerError](t, connA, core.EvtServerError), 1)
	})
}

func TestMarkReadOnJoin(t *testing.T) {
	ctx := context.Background()
	o, st := setup(t)
	roomID := mkRoom(t, st, "u1", "u2")

	sidA, connA := connect(t, o, "u1", "alice")
	require.NoError(t, o.JoinRoom(ctx, sidA, roomID))
	require.NoError(t, o.SendMessage(ctx, sidA, roomID, "hello?"))

	n, err := st.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sidB, _ := connect(t, o, "u2", "bob")
	require.NoError(t, o.JoinRoom(ctx, sidB, roomID))

	n, err = st.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The sender's UI learns its messages were read.
	read := eventsOf[core.MessagesRead](t, connA, core.EvtMessagesRead)
	require.NotEmpty(t, read)
	assert.Equal(t, domain.UserID("u2"), read[len(read)-1].UserID)
}

type failingAppendStore struct {
	core.ChatStore
}

func (s *failingAppendStore) AppendMessage(context.Context, domain.Message) error {
	return errors.New("disk on fire")
}
