package repository

import (
	"coursebot/internal/domain"
	"coursebot/internal/models"

	"gorm.io/gorm"
)

type CourseRequestRepository struct {
	db *gorm.DB
}

func NewCourseRequestRepository(db *gorm.DB) *CourseRequestRepository {
	return &CourseRequestRepository{db: db}
}

func (r *CourseRequestRepository) Create(cr *models.CourseRequest) error {
	return r.db.Omit("User").Create(cr).Error
}

func (r *CourseRequestRepository) List(status string, page, limit int) ([]models.CourseRequest, int64, error) {
	q := r.db.Model(&models.CourseRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CourseRequest
	err := q.Preload("User").Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, err
}

// MarkFulfilled flips a pending request. It reports false when the request was already fulfilled.
func (r *CourseRequestRepository) MarkFulfilled(id uint) (bool, error) {
	var cr models.CourseRequest
	if err := r.db.First(&cr, id).Error; err != nil {
		return false, err
	}
	res := r.db.Model(&models.CourseRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestStatusPending).
		Update("status", domain.RequestStatusFulfilled)
	return res.RowsAffected == 1, res.Error
}

func (r *CourseRequestRepository) Delete(id uint) error {
	res := r.db.Delete(&models.CourseRequest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CourseRequestRepository) CountPending() (int64, error) {
	var n int64
	err := r.db.Model(&models.CourseRequest{}).Where("status = ?", domain.RequestStatusPending).Count(&n).Error
	return n, err
}
