package models

import (
	"strings"
	"time"
)

// User is owned by the accounts service; messaging only reads it.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	FirstName string
	LastName  string
	FullName  string
	ImageURL  string
	CreatedAt time.Time
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
