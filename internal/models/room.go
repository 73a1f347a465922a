package models

import (
	"fmt"
	"time"
)

type Room struct {
	ID        uint `gorm:"primaryKey"`
	Name      *string
	CreatorID uint `gorm:"not null;index"`
	IsPrivate bool `gorm:"not null"`
	// PairKey is "<low>:<high>" of the two member ids for private rooms.
	PairKey   *string `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Creator  User      `gorm:"foreignKey:CreatorID"`
	Members  []User    `gorm:"many2many:room_members"`
	Messages []Message `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// PairKey returns the canonical key of an unordered user pair.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (r *Room) HasMember(userID uint) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

func (r *Room) MemberIDs() []uint {
	ids := make([]uint, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// Other returns the member that is not userID, if any.
func (r *Room) Other(userID uint) *User {
	for i := range r.Members {
		if r.Members[i].ID != userID {
			return &r.Members[i]
		}
	}
	return nil
}
