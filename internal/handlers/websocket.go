package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/jobchat/internal/config"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/middleware"
	ws "github.com/thereayou/jobchat/internal/websocket"
)

// WebSocketHandler accepts chat sessions on /ws/chat/:room_id.
type WebSocketHandler struct {
	messageHandler *MessageHandler
	cfg            config.WebSocketConfig
	upgrader       websocket.Upgrader
}

func NewWebSocketHandler(messageHandler *MessageHandler, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		messageHandler: messageHandler,
		cfg:            cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict to the frontend origins once they are configurable.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket authorizes the session before upgrading, so a refused
// handshake is an ordinary HTTP error.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	roomID, err := paramID(c, "room_id")
	if err != nil {
		respondError(c, err)
		return
	}

	client := ws.NewClient(roomID, userID, h.cfg)
	if err := client.Authorize(h.messageHandler); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		client.Close()
		return
	}

	if err := client.Open(conn); err != nil {
		log.Ctx(client.Context()).Warn().Err(err).Msg("chat session failed to open")
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
