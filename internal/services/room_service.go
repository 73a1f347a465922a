package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thereayou/jobchat/internal/database"
	"github.com/thereayou/jobchat/internal/models"
	"github.com/thereayou/jobchat/internal/presence"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type RoomFilter string

const (
	FilterAll    RoomFilter = ""
	FilterUnread RoomFilter = "unread"
	// FilterActive and FilterWon need the job/bid services.
	FilterActive RoomFilter = "active"
	FilterWon    RoomFilter = "won"
)

type RoomPatch struct {
	Name      *string
	MemberIDs []uint
}

// RoomSummary is one row of a user's room list.
type RoomSummary struct {
	ID             uint      `json:"id"`
	Name           *string   `json:"name"`
	OtherUserID    *uint     `json:"other_user_id"`
	OtherUserName  *string   `json:"other_user_name"`
	OtherUserImage *string   `json:"other_user_image"`
	LastMessage    *string   `json:"last_message"`
	UnreadCount    int64     `json:"unread_count"`
	OnlineCount    int64     `json:"online_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type RoomService struct {
	db       *database.Database
	presence presence.Store
}

func NewRoomService(db *database.Database, presence presence.Store) *RoomService {
	return &RoomService{db: db, presence: presence}
}

func (s *RoomService) Get(ctx context.Context, roomID uint) (*models.Room, error) {
	room, err := s.db.GetRoom(ctx, roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// CreateOrGetPrivateRoom returns the private room for the pair, creating it with
// userA as creator when none exists. created reports which of the two happened.
func (s *RoomService) CreateOrGetPrivateRoom(ctx context.Context, userA, userB uint) (room *models.Room, created bool, err error) {
	if userA == userB {
		return nil, false, ErrSelfRoom
	}

	creator, err := s.user(ctx, userA)
	if err != nil {
		return nil, false, err
	}
	other, err := s.user(ctx, userB)
	if err != nil {
		return nil, false, err
	}

	room, err = s.db.FindPrivateRoomByPair(ctx, userA, userB)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	name := fmt.Sprintf("%s - %s", creator.DisplayName(), other.DisplayName())
	room, err = s.db.CreatePrivateRoom(ctx, creator, other, name)
	switch {
	case errors.Is(err, database.ErrRoomSize):
		return nil, false, ErrRoomInvariant
	case err != nil:
		// A concurrent request may have won the unique pair_key insert.
		if existing, ferr := s.db.FindPrivateRoomByPair(ctx, userA, userB); ferr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	return room, true, nil
}

// AuthorizeAccess reports whether the user is the room creator or a member.
func (s *RoomService) AuthorizeAccess(room *models.Room, userID uint) bool {
	return room.CreatorID == userID || room.HasMember(userID)
}

// ValidatePrivate rejects rooms that are not two-party private conversations.
func ValidatePrivate(room *models.Room) error {
	if !room.IsPrivate || len(room.Members) != 2 {
		return ErrNotPrivateRoom
	}
	return nil
}

// ListRoomsFor returns the user's rooms newest first.
func (s *RoomService) ListRoomsFor(ctx context.Context, userID uint, filter RoomFilter) ([]RoomSummary, error) {
	switch filter {
	case FilterAll, FilterUnread:
	default:
		return nil, ErrUnsupportedFilter
	}

	rooms, err := s.db.GetUserRooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]RoomSummary, len(rooms))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range rooms {
		i := i
		g.Go(func() error {
			summary, err := s.summarize(gCtx, &rooms[i], userID)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if filter == FilterUnread {
		filtered := summaries[:0]
		for _, sm := range summaries {
			if sm.UnreadCount > 0 {
				filtered = append(filtered, sm)
			}
		}
		summaries = filtered
	}

	return summaries, nil
}

func (s *RoomService) summarize(ctx context.Context, room *models.Room, userID uint) (RoomSummary, error) {
	summary := RoomSummary{
		ID:        room.ID,
		Name:      room.Name,
		UpdatedAt: room.UpdatedAt,
	}

	other := room.Other(userID)
	if other != nil {
		name := other.DisplayName()
		summary.OtherUserID = &other.ID
		summary.OtherUserName = &name
		if other.ImageURL != "" {
			summary.OtherUserImage = &other.ImageURL
		}
	}

	last, err := s.db.GetLastMessage(ctx, room.ID)
	switch {
	case err == nil:
		summary.LastMessage = last.Text
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return summary, err
	case other != nil:
		hint := "say hi to " + other.DisplayName()
		summary.LastMessage = &hint
	}

	unread, err := s.db.CountUnseen(ctx, room.ID, userID)
	if err != nil {
		return summary, err
	}
	summary.UnreadCount = unread

	if s.presence != nil {
		online, err := s.presence.ConnectedCount(ctx, room.ID)
		if err != nil {
			return summary, err
		}
		summary.OnlineCount = online
	}

	return summary, nil
}

// UpdateMetadata applies a creator-only change to the room name or member set.
func (s *RoomService) UpdateMetadata(ctx context.Context, roomID, userID uint, patch RoomPatch) (*models.Room, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.CreatorID != userID {
		return nil, ErrForbidden
	}

	var members []models.User
	if patch.MemberIDs != nil {
		members, err = s.resolveMembers(ctx, room, patch.MemberIDs)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.UpdateRoom(ctx, room, patch.Name, members)
	if errors.Is(err, database.ErrRoomSize) {
		return nil, ErrInvalidMembership
	}
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (s *RoomService) resolveMembers(ctx context.Context, room *models.Room, ids []uint) ([]models.User, error) {
	seen := make(map[uint]struct{}, len(ids))
	members := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}
		members = append(members, *u)
	}

	if !room.IsPrivate {
		return members, nil
	}

	if _, ok := seen[room.CreatorID]; !ok || len(members) != 2 {
		return nil, ErrInvalidMembership
	}

	existing, err := s.db.FindPrivateRoomByPair(ctx, members[0].ID, members[1].ID)
	if err == nil && existing.ID != room.ID {
		return nil, ErrInvalidMembership
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return members, nil
}

func (s *RoomService) user(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
