package dto

import (
	"time"

	"github.com/thereayou/jobchat/internal/models"
)

type UserInfo struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Image    string `json:"image"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{ID: u.ID, FullName: u.DisplayName(), Image: u.ImageURL}
}

type RoomResponse struct {
	ID        uint       `json:"id"`
	Name      *string    `json:"name"`
	Creator   UserInfo   `json:"creator"`
	IsPrivate bool       `json:"is_private"`
	Members   []UserInfo `json:"members"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type RoomDetailResponse struct {
	RoomResponse
	Messages []MessageResponse `json:"messages"`
}

func NewRoomResponse(r *models.Room) RoomResponse {
	members := make([]UserInfo, 0, len(r.Members))
	for i := range r.Members {
		members = append(members, NewUserInfo(&r.Members[i]))
	}

	resp := RoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		IsPrivate: r.IsPrivate,
		Members:   members,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Creator.ID != 0 {
		resp.Creator = NewUserInfo(&r.Creator)
	} else {
		resp.Creator = UserInfo{ID: r.CreatorID}
	}
	return resp
}

type CreateRoomResponse struct {
	RoomID  uint   `json:"room_id"`
	Message string `json:"message"`
}

// UpdateRoomRequest leaves fields untouched when they are absent.
type UpdateRoomRequest struct {
	Name      *string `json:"name"`
	MemberIDs []uint  `json:"member_ids"`
}
