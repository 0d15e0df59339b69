package repository

import (
	"coursebot/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(c *models.Course) error {
	return r.db.Create(c).Error
}

func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var c models.Course
	err := r.db.Preload("Category").First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActive returns the course only while it is active.
func (r *CourseRepository) GetActive(id uint) (*models.Course, error) {
	var c models.Course
	err := r.db.Preload("Category").Where("is_active = ?", true).First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) Update(c *models.Course) error {
	return r.db.Omit("Category").Save(c).Error
}

func (r *CourseRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Course{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active courses in catalogue order.
func (r *CourseRepository) ListActive() ([]models.Course, error) {
	var list []models.Course
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *CourseRepository) ListActiveByCategory(categoryID uint) ([]models.Course, error) {
	var list []models.Course
	err := r.db.Where("is_active = ? AND category_id = ?", true, categoryID).Order("title ASC").Find(&list).Error
	return list, err
}

// SearchActive matches active courses whose title, or whose category name,
// contains q case-insensitively. Results are ordered by title.
func (r *CourseRepository) SearchActive(q string) ([]models.Course, error) {
	p := likePattern(q)
	cats := r.db.Model(&models.Category{}).Select("id").Where("LOWER(name) LIKE ? ESCAPE '!'", p)
	var list []models.Course
	err := r.db.Where("is_active = ?", true).
		Where(r.db.Where("LOWER(title) LIKE ? ESCAPE '!'", p).Or("category_id IN (?)", cats)).
		Order("title ASC").
		Find(&list).Error
	return list, err
}

// List is the admin listing: every course, newest first, with optional title search.
func (r *CourseRepository) List(search string, page, limit int) ([]models.Course, int64, error) {
	q := r.db.Model(&models.Course{})
	if search != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '!'", likePattern(search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Course
	err := q.Preload("Category").Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, err
}
