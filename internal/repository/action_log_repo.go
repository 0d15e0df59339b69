package repository

import (
	"context"

	"coursebot/internal/models"

	"gorm.io/gorm"
)

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

func (r *ActionLogRepository) Create(ctx context.Context, l *models.ActionLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// List filters by telegram id (0 means any) and exact action name.
func (r *ActionLogRepository) List(telegramID int64, action string, page, limit int) ([]models.ActionLog, int64, error) {
	q := r.db.Model(&models.ActionLog{})
	if telegramID != 0 {
		q = q.Where("telegram_id = ?", telegramID)
	}
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.ActionLog
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, err
}

func (r *ActionLogRepository) RecentForUser(telegramID int64, n int) ([]models.ActionLog, error) {
	var list []models.ActionLog
	err := r.db.Where("telegram_id = ?", telegramID).Order("created_at DESC").Order("id DESC").Limit(n).Find(&list).Error
	return list, err
}
