package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

// Course is sold through the bot. Only active courses are visible to users.
type Course struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Title          string          `gorm:"size:255;not null;index" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID     *uint           `gorm:"index" json:"category_id"`
	IsActive       bool            `gorm:"not null;index" json:"is_active"`
	IsFree         bool            `gorm:"not null" json:"is_free"`
	FileLink       string          `gorm:"size:1024" json:"file_link"`
	ImageLink      string          `gorm:"size:1024" json:"image_link"`
	DemoVideoLink  string          `gorm:"size:1024" json:"demo_video_link"`
	QRCodeImage    string          `gorm:"size:255" json:"qr_code_image"`   // filename under <upload>/qr_codes
	PaymentOptions string          `gorm:"size:100" json:"payment_options"` // comma-separated method codes
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Course) TableName() string { return "courses" }

// PaymentMethods returns the per-course method codes, or nil when the course
// defers to the global defaults.
func (c *Course) PaymentMethods() []string {
	var out []string
	for _, p := range strings.Split(c.PaymentOptions, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PriceLabel renders the price the way course buttons show it.
func (c *Course) PriceLabel() string {
	if c.IsFree {
		return "FREE"
	}
	return FormatRupees(c.Price)
}

func (c *Course) CategoryName() string {
	if c.Category == nil || c.Category.Name == "" {
		return "Uncategorized"
	}
	return c.Category.Name
}

func FormatRupees(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
