package database

import (
	"errors"
	"fmt"

	"coursebot/config"
	"coursebot/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the configured admin account on first boot and, with it,
// a small starter catalogue. It is a no-op once the admin exists.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) (created bool, err error) {
	var existing models.Admin
	err = db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash := cfg.PasswordHash
	if hash == "" {
		b, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return false, fmt.Errorf("hash admin password: %w", err)
		}
		hash = string(b)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Admin{
			Username:     cfg.Username,
			Email:        cfg.Email,
			PasswordHash: hash,
		}).Error; err != nil {
			return err
		}
		return seedCatalogue(tx)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func seedCatalogue(tx *gorm.DB) error {
	var n int64
	if err := tx.Model(&models.Course{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	cats := []models.Category{
		{Name: "Programming"},
		{Name: "Data Science"},
		{Name: "Web Development"},
	}
	if err := tx.Create(&cats).Error; err != nil {
		return err
	}

	courses := []models.Course{
		{
			Title:       "Python Programming Masterclass",
			Description: "Learn Python from basics to advanced concepts with practical projects.",
			Price:       decimal.RequireFromString("49.99"),
			CategoryID:  &cats[0].ID,
			IsActive:    true,
			FileLink:    "https://example.com/python-course",
		},
		{
			Title:       "Data Science with Python",
			Description: "Master data analysis, visualization and machine learning with Python.",
			Price:       decimal.RequireFromString("59.99"),
			CategoryID:  &cats[1].ID,
			IsActive:    true,
			FileLink:    "https://example.com/data-science-course",
		},
		{
			Title:       "Web Development Bootcamp",
			Description: "Complete web development course covering HTML, CSS, JavaScript and more.",
			Price:       decimal.RequireFromString("39.99"),
			CategoryID:  &cats[2].ID,
			IsActive:    true,
			FileLink:    "https://example.com/web-dev-course",
		},
	}
	return tx.Create(&courses).Error
}
