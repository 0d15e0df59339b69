package models

import "time"

// ActionLog records one user-facing bot action for the admin audit view.
type ActionLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"not null;index" json:"telegram_id"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	IPAddress  string    `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ActionLog) TableName() string { return "action_logs" }
