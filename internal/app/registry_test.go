package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

func TestRegistry(t *testing.T) {
	t.Run("register binds identity exactly once", func(t *testing.T) {
		reg := app.NewRegistry()
		user, err := domain.NewUser("u1", "alice")
		require.NoError(t, err)
		sid := reg.Register(&fakeConn{}, user)

		got, ok := reg.IdentityOf(sid)
		require.True(t, ok)
		assert.Equal(t, domain.UserID("u1"), got.ID)

		_, ok = reg.IdentityOf("nope")
		assert.False(t, ok)
	})

	t.Run("unregister is idempotent and reports joined rooms", func(t *testing.T) {
		reg := app.NewRegistry()
		user, _ := domain.NewUser("u1", "alice")
		sid := reg.Register(&fakeConn{}, user)
		reg.TrackJoin(sid, "r1", false)
		reg.TrackJoin(sid, "c1", true)

		snap, ok := reg.Unregister(sid)
		require.True(t, ok)
		assert.Equal(t, []domain.RoomID{"r1"}, snap.Rooms)
		assert.Equal(t, []domain.RoomID{"c1"}, snap.Calls)

		_, ok = reg.Unregister(sid)
		assert.False(t, ok)
		_, ok = reg.IdentityOf(sid)
		assert.False(t, ok)
	})
}

func TestUnknownSessionIsRejected(t *testing.T) {
	o, st := setup(t)
	roomID := mkRoom(t, st, "u1", "u2")
	ctx := context.Background()
	bogus := core.SessionID("ghost")

	assert.ErrorIs(t, o.JoinRoom(ctx, bogus, roomID), domain.ErrUnauthorized)
	assert.ErrorIs(t, o.SendMessage(ctx, bogus, roomID, "hi"), domain.ErrUnauthorized)
	assert.ErrorIs(t, o.Typing(bogus, roomID), domain.ErrUnauthorized)
	assert.ErrorIs(t, o.JoinCall(ctx, bogus, roomID), domain.ErrUnauthorized)

	// No broadcast reached anyone.
	sid, conn := connect(t, o, "u2", "bob")
	require.NoError(t, o.JoinRoom(ctx, sid, roomID))
	assert.Empty(t, eventsOf[core.ReceiveMessage](t, conn, core.EvtReceiveMessage))
}
