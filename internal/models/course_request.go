package models

import "time"

type CourseRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	RequestText string    `gorm:"type:text;not null" json:"request_text"`
	Status      string    `gorm:"size:20;not null;index" json:"status"` // pending, fulfilled
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (CourseRequest) TableName() string { return "course_requests" }
