package repository

import (
	"strconv"

	"coursebot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate returns the user keyed by u.TelegramID, inserting u when absent.
// created is true only for the call that performed the insert.
func (r *UserRepository) GetOrCreate(u *models.User) (user *models.User, created bool, err error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoNothing: true,
	}).Create(u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return u, true, nil
	}
	user, err = r.GetByTelegramID(u.TelegramID)
	return user, false, err
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var u models.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users newest first, optionally filtered by a name/id search and ban state.
func (r *UserRepository) List(search string, banned *bool, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		p := likePattern(search)
		cond := r.db.Where("LOWER(username) LIKE ? ESCAPE '!'", p).
			Or("LOWER(first_name) LIKE ? ESCAPE '!'", p).
			Or("LOWER(last_name) LIKE ? ESCAPE '!'", p)
		if id, err := strconv.ParseInt(search, 10, 64); err == nil {
			cond = cond.Or("telegram_id = ?", id)
		}
		q = q.Where(cond)
	}
	if banned != nil {
		q = q.Where("is_banned = ?", *banned)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.User
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, err
}

// SetBan updates the ban flag and reason. Unbanning clears the reason.
func (r *UserRepository) SetBan(id uint, banned bool, reason string) error {
	if !banned {
		reason = ""
	}
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"is_banned": banned, "ban_reason": reason}).Error
}

func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}
