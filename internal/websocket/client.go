package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/thereayou/jobchat/internal/config"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/metrics"
	"golang.org/x/time/rate"
)

// State is the lifecycle position of a chat session.
type State int32

const (
	StateConnecting State = iota
	StateAuthorizing
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionHandler supplies the behaviour of each lifecycle step.
type SessionHandler interface {
	// Authorize decides whether the identity may join the room.
	Authorize(ctx context.Context, client *Client) error
	// OnOpen runs the entry actions once the socket is accepted.
	OnOpen(ctx context.Context, client *Client) error
	// HandleMessage processes one inbound frame.
	HandleMessage(ctx context.Context, client *Client, data []byte)
	// KeepAlive runs on every ping tick of an open session.
	KeepAlive(ctx context.Context, client *Client) error
	// OnClose releases whatever OnOpen acquired. Called exactly once.
	OnClose(ctx context.Context, client *Client)
}

type Client struct {
	ID     uuid.UUID
	UserID uint
	RoomID uint

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	state   atomic.Int32
	limiter *rate.Limiter
	cfg     config.WebSocketConfig
	handler SessionHandler
	logger  zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	// lifecycle keeps KeepAlive and OnClose from interleaving.
	lifecycle sync.Mutex
}

func NewClient(roomID, userID uint, cfg config.WebSocketConfig) *Client {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	logger := log.L().With().
		Str(log.FieldClientID, id.String()).
		Uint(log.FieldRoomID, roomID).
		Uint(log.FieldUserID, userID).
		Logger()

	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}
	limit := rate.Inf
	if cfg.FrameRate > 0 {
		limit = rate.Limit(cfg.FrameRate)
	}
	burst := cfg.FrameBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		ID:      id,
		UserID:  userID,
		RoomID:  roomID,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		logger:  logger,
		ctx:     log.WithLogger(ctx, logger),
		cancel:  cancel,
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// Context lives as long as the session and carries its logger.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Authorize moves Connecting -> Authorizing and asks the handler. A refusal
// closes the session before any socket is accepted.
func (c *Client) Authorize(handler SessionHandler) error {
	if !c.transition(StateConnecting, StateAuthorizing) {
		return ErrInvalidState
	}
	c.handler = handler

	if err := handler.Authorize(c.ctx, c); err != nil {
		c.state.Store(int32(StateClosed))
		c.cancel()
		return err
	}
	return nil
}

// Open attaches the accepted socket (nil in tests) and runs the entry actions.
func (c *Client) Open(conn *websocket.Conn) error {
	if !c.transition(StateAuthorizing, StateOpen) {
		return ErrInvalidState
	}
	c.conn = conn
	metrics.WsConnections.Inc()

	if err := c.handler.OnOpen(c.ctx, c); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Close runs the exit actions exactly once, whichever path gets here first.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		prev := State(c.state.Swap(int32(StateClosed)))
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}

		if prev == StateOpen {
			metrics.WsConnections.Dec()
		}
		if prev == StateOpen && c.handler != nil {
			c.lifecycle.Lock()
			ctx, cancel := context.WithTimeout(log.WithLogger(context.Background(), c.logger), 5*time.Second)
			c.handler.OnClose(ctx, c)
			cancel()
			c.lifecycle.Unlock()
		}
		c.cancel()
	})
}

// KeepAlive lets the handler refresh whatever the session holds. It is a
// no-op once the session has left the Open state.
func (c *Client) KeepAlive() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.State() != StateOpen || c.handler == nil {
		return
	}
	if err := c.handler.KeepAlive(c.ctx, c); err != nil {
		c.logger.Warn().Err(err).Msg("session keepalive failed")
	}
}

// Done is closed once the session has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Outbox exposes queued outbound frames.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// Allow reports whether another inbound frame fits the rate limit.
func (c *Client) Allow() bool {
	return c.limiter.Allow()
}

// Send queues a frame without blocking.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SendJSON marshals v and queues it.
func (c *Client) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// ReadPump feeds inbound frames to the handler until the socket fails.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		c.handler.HandleMessage(c.ctx, c, data)
	}
}

// WritePump drains the outbox and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.KeepAlive()
		}
	}
}
