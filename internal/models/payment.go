package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is append-only apart from Status and ActionAt, which move once out of pending.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	CourseID      uint            `gorm:"not null;index" json:"course_id"`
	Method        string          `gorm:"size:20;not null" json:"method"`
	ProofFilename *string         `gorm:"size:255" json:"proof_filename"`
	ProofURL      string          `gorm:"size:512" json:"proof_url"`
	ProofHash     string          `gorm:"size:64;index" json:"-"`
	Details       string          `gorm:"type:text" json:"details"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status        string          `gorm:"size:20;not null;index" json:"status"` // pending, approved, rejected
	SubmittedAt   time.Time       `gorm:"not null;index" json:"submitted_at"`
	ActionAt      *time.Time      `json:"action_at"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
