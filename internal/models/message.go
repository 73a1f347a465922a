package models

import "time"

type Message struct {
	ID     uint `gorm:"primaryKey"`
	RoomID uint `gorm:"not null;index"`
	// UserID is nulled rather than cascaded when the author account goes away,
	// so the other side keeps the conversation.
	UserID    *uint   `gorm:"index"`
	Text      *string `gorm:"size:1000"`
	File      *string
	Seen      bool `gorm:"not null;default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (m *Message) AuthoredBy(userID uint) bool {
	return m.UserID != nil && *m.UserID == userID
}
