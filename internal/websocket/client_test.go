package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/jobchat/internal/config"
)

type recordingHandler struct {
	authErr  error
	openErr  error
	opened   atomic.Int32
	closed   atomic.Int32
	kept     atomic.Int32
	received [][]byte
	mu       sync.Mutex
}

func (h *recordingHandler) Authorize(ctx context.Context, client *Client) error {
	return h.authErr
}

func (h *recordingHandler) OnOpen(ctx context.Context, client *Client) error {
	h.opened.Add(1)
	return h.openErr
}

func (h *recordingHandler) HandleMessage(ctx context.Context, client *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, data)
}

func (h *recordingHandler) KeepAlive(ctx context.Context, client *Client) error {
	h.kept.Add(1)
	return nil
}

func (h *recordingHandler) OnClose(ctx context.Context, client *Client) {
	h.closed.Add(1)
}

func testConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PongWait:       time.Minute,
		WriteWait:      time.Second,
		MaxMessageSize: 1024,
		SendBuffer:     2,
		FrameRate:      1,
		FrameBurst:     2,
	}
}

func TestClientLifecycle(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient(1, 2, testConfig())
	assert.Equal(t, StateConnecting, c.State())

	require.NoError(t, c.Authorize(h))
	assert.Equal(t, StateAuthorizing, c.State())

	require.NoError(t, c.Open(nil))
	assert.Equal(t, StateOpen, c.State())
	assert.EqualValues(t, 1, h.opened.Load())

	c.Close()
	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, h.closed.Load())

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	assert.Error(t, c.Context().Err())
}

func TestClientCloseRunsOnce(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient(1, 2, testConfig())
	require.NoError(t, c.Authorize(h))
	require.NoError(t, c.Open(nil))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, h.closed.Load())
}

func TestClientAuthorizeRejected(t *testing.T) {
	denied := errors.New("denied")
	h := &recordingHandler{authErr: denied}
	c := NewClient(1, 2, testConfig())

	assert.ErrorIs(t, c.Authorize(h), denied)
	assert.Equal(t, StateClosed, c.State())
	assert.ErrorIs(t, c.Open(nil), ErrInvalidState)

	c.Close()
	assert.Zero(t, h.opened.Load())
	assert.Zero(t, h.closed.Load(), "nothing to release for a session that never opened")
}

func TestClientOpenFailureCloses(t *testing.T) {
	h := &recordingHandler{openErr: errors.New("redis down")}
	c := NewClient(1, 2, testConfig())
	require.NoError(t, c.Authorize(h))

	assert.Error(t, c.Open(nil))
	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, h.closed.Load())
}

func TestClientOpenRequiresAuthorization(t *testing.T) {
	c := NewClient(1, 2, testConfig())
	assert.ErrorIs(t, c.Open(nil), ErrInvalidState)
	assert.Equal(t, StateConnecting, c.State())
}

func TestClientKeepAliveOnlyWhileOpen(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient(1, 2, testConfig())

	c.KeepAlive()
	require.NoError(t, c.Authorize(h))
	c.KeepAlive()
	assert.Zero(t, h.kept.Load(), "not open yet")

	require.NoError(t, c.Open(nil))
	c.KeepAlive()
	assert.EqualValues(t, 1, h.kept.Load())

	c.Close()
	c.KeepAlive()
	assert.EqualValues(t, 1, h.kept.Load(), "closed sessions are not refreshed")
}

func TestClientSend(t *testing.T) {
	c := NewClient(1, 2, testConfig())

	require.NoError(t, c.Send([]byte("a")))
	require.NoError(t, c.Send([]byte("b")))
	assert.ErrorIs(t, c.Send([]byte("c")), ErrClientQueueFull)

	assert.Equal(t, []byte("a"), <-c.Outbox())

	c.Close()
	assert.ErrorIs(t, c.Send([]byte("d")), ErrClientClosed)
}

func TestClientAllow(t *testing.T) {
	c := NewClient(1, 2, testConfig())

	assert.True(t, c.Allow())
	assert.True(t, c.Allow())
	assert.False(t, c.Allow(), "burst exhausted")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "authorizing", StateAuthorizing.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
}
