package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/jobchat/internal/handlers/dto"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/metrics"
	"github.com/thereayou/jobchat/internal/middleware"
	"github.com/thereayou/jobchat/internal/models"
	"github.com/thereayou/jobchat/internal/presence"
	"github.com/thereayou/jobchat/internal/services"
	"github.com/thereayou/jobchat/internal/websocket"
)

// HTTPMessageHandler serves message history and posting for clients without
// an open socket. Posted messages reach open sockets through the fanout.
type HTTPMessageHandler struct {
	rooms    *services.RoomService
	messages *services.MessageService
	presence presence.Store
	fanout   websocket.Fanout
}

func NewHTTPMessageHandler(rooms *services.RoomService, messages *services.MessageService,
	store presence.Store, fanout websocket.Fanout) *HTTPMessageHandler {
	return &HTTPMessageHandler{rooms: rooms, messages: messages, presence: store, fanout: fanout}
}

func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	room, ok := h.accessibleRoom(c)
	if !ok {
		return
	}

	query := dto.MessagesQuery{Page: 1, Order: string(services.OrderAsc)}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, services.ErrInvalidPage)
		return
	}

	order := services.Order(query.Order)
	if order != services.OrderAsc && order != services.OrderDesc {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be asc or desc"})
		return
	}

	page, err := h.messages.ListForRoom(c.Request.Context(), room.ID, order, query.Page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessagesPageResponse{
		Count:    page.Count,
		Page:     page.Page,
		HasNext:  page.HasNext,
		Messages: dto.NewMessageResponses(page.Messages),
	})
}

func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	room, ok := h.accessibleRoom(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	both, err := presence.BothPresent(ctx, h.presence, room.ID, room.MemberIDs())
	if err != nil {
		respondError(c, err)
		return
	}

	message, err := h.messages.Append(ctx, room.ID, middleware.CurrentUserID(c),
		services.MessageBody{Text: req.Text, File: req.File}, both)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.MessagesTotal.Inc()

	// The message is stored; open sockets catch up on their next history fetch.
	if err := publishFrame(ctx, h.fanout, room.ID, dto.NewChatMessageFrame(message)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Uint(log.FieldRoomID, room.ID).Msg("publish failed")
	}

	c.JSON(http.StatusCreated, gin.H{"message": dto.NewMessageResponse(message), "status": "success"})
}

func (h *HTTPMessageHandler) accessibleRoom(c *gin.Context) (*models.Room, bool) {
	roomID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !h.rooms.AuthorizeAccess(room, middleware.CurrentUserID(c)) {
		respondError(c, services.ErrAuthorization)
		return nil, false
	}
	return room, true
}
