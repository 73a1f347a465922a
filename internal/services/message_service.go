package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/thereayou/jobchat/internal/database"
	"github.com/thereayou/jobchat/internal/models"
)

const (
	PageSize      = 50
	MaxTextLength = 1000
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// MessageBody is what a client submits; at least one field must be non-empty.
type MessageBody struct {
	Text string
	File string
}

type Page struct {
	Count    int64            `json:"count"`
	Page     int              `json:"page"`
	HasNext  bool             `json:"has_next"`
	Messages []models.Message `json:"-"`
}

type MessageService struct {
	db *database.Database
}

func NewMessageService(db *database.Database) *MessageService {
	return &MessageService{db: db}
}

// Append stores a new message. seen is decided by the caller from presence
// at the moment of sending.
func (s *MessageService) Append(ctx context.Context, roomID, authorID uint, body MessageBody, seen bool) (*models.Message, error) {
	text := body.Text
	hasText := strings.TrimSpace(text) != ""
	if !hasText && body.File == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, ErrMessageTooLong
	}

	author := authorID
	message := &models.Message{
		RoomID: roomID,
		UserID: &author,
		Seen:   seen,
	}
	if hasText {
		message.Text = &text
	}
	if body.File != "" {
		file := body.File
		message.File = &file
	}

	if err := s.db.SaveMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkAllSeenExcept marks every unseen message not written by userID as seen
// and returns the ids that changed.
func (s *MessageService) MarkAllSeenExcept(ctx context.Context, roomID, userID uint) ([]uint, error) {
	return s.db.MarkSeen(ctx, roomID, userID, nil)
}

// MarkSeenByIDs acknowledges specific messages. Ids from other rooms, ids the
// acker wrote and ids already seen are dropped silently.
func (s *MessageService) MarkSeenByIDs(ctx context.Context, roomID, ackerID uint, ids []uint) ([]uint, error) {
	if ids == nil {
		ids = []uint{}
	}
	return s.db.MarkSeen(ctx, roomID, ackerID, ids)
}

func (s *MessageService) ListForRoom(ctx context.Context, roomID uint, order Order, page int) (*Page, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	messages, total, err := s.db.GetRoomMessages(ctx, roomID, PageSize, (page-1)*PageSize, order == OrderDesc)
	if err != nil {
		return nil, err
	}

	return &Page{
		Count:    total,
		Page:     page,
		HasNext:  int64(page*PageSize) < total,
		Messages: messages,
	}, nil
}

// History returns every message in the room, oldest first.
func (s *MessageService) History(ctx context.Context, roomID uint) ([]models.Message, error) {
	return s.db.GetAllRoomMessages(ctx, roomID)
}
