package dto

import (
	"time"

	"github.com/thereayou/jobchat/internal/models"
)

// Inbound frame types. Anything else is handled as a chat message.
const (
	FrameChatMessage       = "chat_message"
	FrameGetMessages       = "get_messages"
	FrameSeenReceipt       = "seen_receipt"
	FrameMessageSeenUpdate = "message_seen_update"
	FramePing              = "ping"
)

// Outbound frame types.
const (
	FrameMessageHistory     = "message_history"
	FrameMessagesSeenUpdate = "messages_seen_update"
	FrameError              = "error"
	FramePong               = "pong"
)

const (
	ErrInvalidJSON    = "Invalid JSON format"
	ErrorReasonPrefix = "An error occurred: "
)

type InboundFrame struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	MessageIDs []uint `json:"message_ids"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	Room      uint      `json:"room"`
	Text      *string   `json:"text"`
	File      *string   `json:"file"`
	User      *uint     `json:"user"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Room:      m.RoomID,
		Text:      m.Text,
		File:      m.File,
		User:      m.UserID,
		Seen:      m.Seen,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewMessageResponses(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, NewMessageResponse(&messages[i]))
	}
	return out
}

type HistoryFrame struct {
	Type     string            `json:"type"`
	Messages []MessageResponse `json:"messages"`
}

type ChatMessageFrame struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

type SeenUpdateFrame struct {
	Type       string `json:"type"`
	MessageIDs []uint `json:"message_ids"`
	SeenBy     uint   `json:"seen_by"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PongFrame struct {
	Type string `json:"type"`
}

func NewHistoryFrame(messages []models.Message) HistoryFrame {
	return HistoryFrame{Type: FrameMessageHistory, Messages: NewMessageResponses(messages)}
}

func NewChatMessageFrame(m *models.Message) ChatMessageFrame {
	return ChatMessageFrame{Type: FrameChatMessage, Message: NewMessageResponse(m)}
}

func NewSeenUpdateFrame(ids []uint, seenBy uint) SeenUpdateFrame {
	return SeenUpdateFrame{Type: FrameMessagesSeenUpdate, MessageIDs: ids, SeenBy: seenBy}
}

func NewErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Message: message}
}

// Page query for GET /rooms/:id/messages.
type MessagesQuery struct {
	Page  int    `form:"page"`
	Order string `form:"order"`
}

type MessagesPageResponse struct {
	Count    int64             `json:"count"`
	Page     int               `json:"page"`
	HasNext  bool              `json:"has_next"`
	Messages []MessageResponse `json:"results"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
	File string `json:"file"`
}
