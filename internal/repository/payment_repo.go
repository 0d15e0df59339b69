package repository

import (
	"strconv"
	"time"

	"coursebot/internal/domain"
	"coursebot/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Omit("User", "Course").Create(p).Error
}

// GetByID loads the payment with its user and course. Deleted courses are still loaded.
func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Preload("User").Preload("Course", unscoped).Preload("Course.Category").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Transition moves a pending payment to status. It reports false when the payment
// is not pending any more, which is how concurrent approvals are told apart.
func (r *PaymentRepository) Transition(id uint, status string, at time.Time) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]any{"status": status, "action_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasProofHash reports whether userID already submitted a proof with this content hash.
func (r *PaymentRepository) HasProofHash(userID uint, hash string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Payment{}).Where("user_id = ? AND proof_hash = ?", userID, hash).Count(&n).Error
	return n > 0, err
}

// ListApprovedForUser returns the user's approved payments, most recently approved first.
func (r *PaymentRepository) ListApprovedForUser(userID uint) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Preload("Course", unscoped).
		Where("user_id = ? AND status = ?", userID, domain.PaymentStatusApproved).
		Order("action_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// List is the admin listing with optional status filter and a search over the
// payer's name or telegram id and the course title.
func (r *PaymentRepository) List(status, search string, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if status != "" {
		q = q.Where("payments.status = ?", status)
	}
	if search != "" {
		p := likePattern(search)
		q = q.Joins("LEFT JOIN users ON users.id = payments.user_id").
			Joins("LEFT JOIN courses ON courses.id = payments.course_id")
		cond := r.db.Where("LOWER(users.username) LIKE ? ESCAPE '!'", p).
			Or("LOWER(users.first_name) LIKE ? ESCAPE '!'", p).
			Or("LOWER(courses.title) LIKE ? ESCAPE '!'", p)
		if id, err := strconv.ParseInt(search, 10, 64); err == nil {
			cond = cond.Or("users.telegram_id = ?", id)
		}
		q = q.Where(cond)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Payment
	err := q.Preload("User").Preload("Course", unscoped).
		Order("payments.submitted_at DESC").Order("payments.id DESC").
		Limit(limit).Offset(offset(page, limit)).
		Find(&list).Error
	return list, total, err
}

// ApprovedRevenue sums the amounts of approved payments.
func (r *PaymentRepository) ApprovedRevenue() (decimal.Decimal, error) {
	var row struct{ Total decimal.NullDecimal }
	err := r.db.Model(&models.Payment{}).Select("SUM(amount) AS total").
		Where("status = ?", domain.PaymentStatusApproved).Scan(&row).Error
	if err != nil || !row.Total.Valid {
		return decimal.Zero, err
	}
	return row.Total.Decimal, nil
}

func (r *PaymentRepository) Recent(n int) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Preload("User").Preload("Course", unscoped).
		Order("submitted_at DESC").Order("id DESC").Limit(n).Find(&list).Error
	return list, err
}

func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }
