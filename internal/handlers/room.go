package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/jobchat/internal/handlers/dto"
	"github.com/thereayou/jobchat/internal/middleware"
	"github.com/thereayou/jobchat/internal/services"
)

type RoomHandler struct {
	rooms    *services.RoomService
	messages *services.MessageService
}

func NewRoomHandler(rooms *services.RoomService, messages *services.MessageService) *RoomHandler {
	return &RoomHandler{rooms: rooms, messages: messages}
}

// CreateDirectRoom opens the private room between the caller and :user_id,
// or returns the one that already exists.
func (h *RoomHandler) CreateDirectRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	otherID, err := paramID(c, "user_id")
	if err != nil {
		respondError(c, err)
		return
	}

	room, created, err := h.rooms.CreateOrGetPrivateRoom(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, dto.CreateRoomResponse{RoomID: room.ID, Message: "Room already exists"})
		return
	}
	c.JSON(http.StatusCreated, dto.CreateRoomResponse{RoomID: room.ID, Message: "Room created successfully"})
}

func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	filter := services.RoomFilter(c.Query("filter"))

	rooms, err := h.rooms.ListRoomsFor(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if rooms == nil {
		rooms = []services.RoomSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "status": "success"})
}

// GetRoom returns the room with its members and full history.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	roomID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	room, err := h.rooms.Get(ctx, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.rooms.AuthorizeAccess(room, userID) {
		respondError(c, services.ErrAuthorization)
		return
	}

	history, err := h.messages.History(ctx, room.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room": dto.RoomDetailResponse{
			RoomResponse: dto.NewRoomResponse(room),
			Messages:     dto.NewMessageResponses(history),
		},
		"status": "success",
	})
}

// UpdateRoom changes the name or member set. Only the creator may do this.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	roomID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.UpdateMetadata(c.Request.Context(), roomID, userID, services.RoomPatch{
		Name:      req.Name,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": dto.NewRoomResponse(room), "status": "success"})
}
