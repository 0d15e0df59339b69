package models

import (
	"strings"
	"time"
)

// User is a chat user, keyed naturally by TelegramID and created on first contact.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   string    `gorm:"size:64;index" json:"username"`
	FirstName  string    `gorm:"size:128" json:"first_name"`
	LastName   string    `gorm:"size:128" json:"last_name"`
	IsBanned   bool      `gorm:"not null;default:false;index" json:"is_banned"`
	BanReason  string    `gorm:"size:500" json:"ban_reason"`
	CreatedAt  time.Time `json:"joined_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		if name == "" {
			return "@" + u.Username
		}
		return name + " (@" + u.Username + ")"
	}
	return name
}
