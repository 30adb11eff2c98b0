package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/store"
)

// fakeConn records frames instead of writing to a socket.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) snapshot() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// eventsOf decodes every recorded frame carrying the named event.
func eventsOf[T any](t *testing.T, c *fakeConn, event string) []T {
	t.Helper()
	var out []T
	for _, f := range c.snapshot() {
		var env core.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		if env.Event != event {
			continue
		}
		var p T
		require.NoError(t, json.Unmarshal(env.Data, &p))
		out = append(out, p)
	}
	return out
}

func setup(t *testing.T) (*app.Orchestrator, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return app.NewOrchestrator(st), st
}

func connect(t *testing.T, o *app.Orchestrator, id, name string) (core.SessionID, *fakeConn) {
	t.Helper()
	user, err := domain.NewUser(domain.UserID(id), name)
	require.NoError(t, err)
	conn := &fakeConn{}
	return o.Connect(conn, user), conn
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code)
}

func mkRoom(t *testing.T, st *store.MemoryStore, a, b string) domain.RoomID {
	t.Helper()
	id, err := st.FindOrCreateRoom(context.Background(), domain.UserID(a), domain.UserID(b))
	require.NoError(t, err)
	return id
}
