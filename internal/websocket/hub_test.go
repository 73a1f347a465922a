package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub()
	a := NewClient(1, 10, testConfig())
	b := NewClient(1, 20, testConfig())

	assert.True(t, hub.Join(1, a), "first local client")
	assert.False(t, hub.Join(1, b))
	assert.Equal(t, 2, hub.RoomClients(1))

	assert.False(t, hub.Leave(1, a))
	assert.False(t, hub.Leave(1, a), "leaving twice is harmless")
	assert.True(t, hub.Leave(1, b), "room is now empty")
	assert.Zero(t, hub.RoomClients(1))

	assert.False(t, hub.Leave(7, a))
}

func TestHubDeliverSkipsFullClients(t *testing.T) {
	hub := NewHub()
	fast := NewClient(1, 10, testConfig())
	slow := NewClient(1, 20, testConfig())
	other := NewClient(2, 30, testConfig())
	hub.Join(1, fast)
	hub.Join(1, slow)
	hub.Join(2, other)

	// testConfig queues two frames
	assert.NoError(t, slow.Send([]byte("x")))
	assert.NoError(t, slow.Send([]byte("y")))

	delivered := hub.Deliver(1, []byte("hello"))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []byte("hello"), <-fast.Outbox())
	assert.Empty(t, other.Outbox())
}

func TestHubCloseAll(t *testing.T) {
	hub := NewHub()
	h := &recordingHandler{}

	open := NewClient(1, 10, testConfig())
	require.NoError(t, open.Authorize(h))
	require.NoError(t, open.Open(nil))
	idle := NewClient(2, 20, testConfig())
	hub.Join(1, open)
	hub.Join(2, idle)

	assert.Equal(t, 2, hub.CloseAll())
	assert.Equal(t, StateClosed, open.State())
	assert.Equal(t, StateClosed, idle.State())
	assert.EqualValues(t, 1, h.closed.Load(), "exit actions run for the open session")

	assert.Zero(t, NewHub().CloseAll())
}
