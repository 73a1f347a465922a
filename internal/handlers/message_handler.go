package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thereayou/jobchat/internal/handlers/dto"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/metrics"
	"github.com/thereayou/jobchat/internal/models"
	"github.com/thereayou/jobchat/internal/presence"
	"github.com/thereayou/jobchat/internal/services"
	"github.com/thereayou/jobchat/internal/websocket"
)

// MessageHandler drives a chat session through its lifecycle and dispatches
// inbound frames.
type MessageHandler struct {
	rooms    *services.RoomService
	messages *services.MessageService
	presence presence.Store
	fanout   websocket.Fanout
}

var _ websocket.SessionHandler = (*MessageHandler)(nil)

func NewMessageHandler(rooms *services.RoomService, messages *services.MessageService,
	store presence.Store, fanout websocket.Fanout) *MessageHandler {
	return &MessageHandler{
		rooms:    rooms,
		messages: messages,
		presence: store,
		fanout:   fanout,
	}
}

func (h *MessageHandler) Authorize(ctx context.Context, client *websocket.Client) error {
	room, err := h.rooms.Get(ctx, client.RoomID)
	if err != nil {
		return err
	}
	if !h.rooms.AuthorizeAccess(room, client.UserID) {
		return services.ErrAuthorization
	}
	if err := services.ValidatePrivate(room); err != nil {
		return services.ErrAuthorization
	}
	return nil
}

func (h *MessageHandler) OnOpen(ctx context.Context, client *websocket.Client) error {
	room, err := h.rooms.Get(ctx, client.RoomID)
	if err != nil {
		return err
	}

	if err := h.fanout.Subscribe(ctx, room.ID, client); err != nil {
		return err
	}
	if err := h.presence.Add(ctx, room.ID, client.UserID); err != nil {
		return err
	}

	// A sweep failure leaves messages unseen until the next connect.
	if err := h.sweepSeen(ctx, room, client.UserID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("seen sweep failed")
	}

	log.Ctx(ctx).Info().Msg("chat session opened")
	return h.sendHistory(ctx, client)
}

// KeepAlive re-adds the user so the presence TTL never lapses under a long
// lived session.
func (h *MessageHandler) KeepAlive(ctx context.Context, client *websocket.Client) error {
	return h.presence.Add(ctx, client.RoomID, client.UserID)
}

func (h *MessageHandler) OnClose(ctx context.Context, client *websocket.Client) {
	logger := log.Ctx(ctx)

	if err := h.presence.Remove(ctx, client.RoomID, client.UserID); err != nil {
		logger.Warn().Err(err).Msg("presence remove failed")
	}
	if err := h.fanout.Unsubscribe(ctx, client.RoomID, client); err != nil {
		logger.Warn().Err(err).Msg("fanout unsubscribe failed")
	}

	logger.Info().Msg("chat session closed")
}

func (h *MessageHandler) HandleMessage(ctx context.Context, client *websocket.Client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().Interface("panic", r).Bytes("frame", data).Msg("frame handler panicked")
			h.sendError(ctx, client, dto.ErrorReasonPrefix+fmt.Sprint(r))
		}
	}()

	if !client.Allow() {
		h.sendError(ctx, client, websocket.ErrRateLimited.Error())
		return
	}

	var frame dto.InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.FramesTotal.WithLabelValues("invalid").Inc()
		h.sendError(ctx, client, dto.ErrInvalidJSON)
		return
	}

	var err error
	switch frame.Type {
	case dto.FrameGetMessages:
		err = h.sendHistory(ctx, client)
	case dto.FrameSeenReceipt, dto.FrameMessageSeenUpdate:
		err = h.handleSeenReceipt(ctx, client, frame.MessageIDs)
	case dto.FramePing:
		err = client.SendJSON(dto.PongFrame{Type: dto.FramePong})
	case dto.FrameChatMessage:
		err = h.handleChatMessage(ctx, client, frame.Message)
	default:
		log.Ctx(ctx).Debug().Str("type", frame.Type).Msg("unknown frame type, handling as chat message")
		frame.Type = dto.FrameChatMessage
		err = h.handleChatMessage(ctx, client, frame.Message)
	}
	metrics.FramesTotal.WithLabelValues(frame.Type).Inc()

	if err != nil {
		h.reportError(ctx, client, err)
	}
}

func (h *MessageHandler) handleChatMessage(ctx context.Context, client *websocket.Client, text string) error {
	room, err := h.rooms.Get(ctx, client.RoomID)
	if err != nil {
		return err
	}

	both, err := presence.BothPresent(ctx, h.presence, room.ID, room.MemberIDs())
	if err != nil {
		return err
	}

	message, err := h.messages.Append(ctx, room.ID, client.UserID, services.MessageBody{Text: text}, both)
	if err != nil {
		return err
	}
	metrics.MessagesTotal.Inc()

	return publishFrame(ctx, h.fanout, room.ID, dto.NewChatMessageFrame(message))
}

func (h *MessageHandler) handleSeenReceipt(ctx context.Context, client *websocket.Client, ids []uint) error {
	updated, err := h.messages.MarkSeenByIDs(ctx, client.RoomID, client.UserID, ids)
	if err != nil {
		return err
	}
	return h.publishSeen(ctx, client.RoomID, client.UserID, updated)
}

// sweepSeen marks everything the other member wrote as seen once both
// members are connected.
func (h *MessageHandler) sweepSeen(ctx context.Context, room *models.Room, userID uint) error {
	both, err := presence.BothPresent(ctx, h.presence, room.ID, room.MemberIDs())
	if err != nil || !both {
		return err
	}

	updated, err := h.messages.MarkAllSeenExcept(ctx, room.ID, userID)
	if err != nil {
		return err
	}
	return h.publishSeen(ctx, room.ID, userID, updated)
}

func (h *MessageHandler) publishSeen(ctx context.Context, roomID, seenBy uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	metrics.SeenUpdatesTotal.Add(float64(len(ids)))
	return publishFrame(ctx, h.fanout, roomID, dto.NewSeenUpdateFrame(ids, seenBy))
}

func (h *MessageHandler) sendHistory(ctx context.Context, client *websocket.Client) error {
	history, err := h.messages.History(ctx, client.RoomID)
	if err != nil {
		return err
	}
	return client.SendJSON(dto.NewHistoryFrame(history))
}

func (h *MessageHandler) reportError(ctx context.Context, client *websocket.Client, err error) {
	if errors.Is(err, services.ErrEmptyMessage) {
		h.sendError(ctx, client, err.Error())
		return
	}

	log.Ctx(ctx).Warn().Err(err).Msg("frame handling failed")
	h.sendError(ctx, client, dto.ErrorReasonPrefix+err.Error())
}

func (h *MessageHandler) sendError(ctx context.Context, client *websocket.Client, message string) {
	if err := client.SendJSON(dto.NewErrorFrame(message)); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("could not queue error frame")
	}
}

func publishFrame(ctx context.Context, fanout websocket.Fanout, roomID uint, frame interface{}) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return fanout.Publish(ctx, roomID, data)
}
