package repository

import (
	"coursebot/internal/models"

	"gorm.io/gorm"
)

// CategoryCount is a category with the number of active courses filed under it.
type CategoryCount struct {
	models.Category
	ActiveCourses int64 `json:"active_courses"`
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(c *models.Category) error {
	if taken, err := r.nameTaken(c.Name, 0); err != nil {
		return err
	} else if taken {
		return ErrDuplicate
	}
	return r.db.Create(c).Error
}

func (r *CategoryRepository) GetByID(id uint) (*models.Category, error) {
	var c models.Category
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Rename(id uint, name string) (*models.Category, error) {
	c, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if taken, err := r.nameTaken(name, id); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicate
	}
	c.Name = name
	if err := r.db.Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the category and detaches its courses.
func (r *CategoryRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Course{}).Unscoped().Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListWithCounts returns every category ordered by name with its active course count.
func (r *CategoryRepository) ListWithCounts() ([]CategoryCount, error) {
	var list []CategoryCount
	err := r.db.Model(&models.Category{}).
		Select("categories.id, categories.name, categories.created_at, categories.updated_at, COUNT(courses.id) AS active_courses").
		Joins("LEFT JOIN courses ON courses.category_id = categories.id AND courses.is_active = ? AND courses.deleted_at IS NULL", true).
		Group("categories.id, categories.name, categories.created_at, categories.updated_at").
		Order("categories.name ASC").
		Scan(&list).Error
	return list, err
}

// NonEmpty keeps the categories that have at least one active course. list is not modified.
func NonEmpty(list []CategoryCount) []CategoryCount {
	var out []CategoryCount
	for _, c := range list {
		if c.ActiveCourses > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (r *CategoryRepository) nameTaken(name string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
