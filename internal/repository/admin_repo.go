package repository

import (
	"time"

	"coursebot/internal/domain"
	"coursebot/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers       int64            `json:"total_users"`
	BannedUsers      int64            `json:"banned_users"`
	TotalCourses     int64            `json:"total_courses"`
	ActiveCourses    int64            `json:"active_courses"`
	TotalPayments    int64            `json:"total_payments"`
	PendingPayments  int64            `json:"pending_payments"`
	ApprovedPayments int64            `json:"approved_payments"`
	RejectedPayments int64            `json:"rejected_payments"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	PendingRequests  int64            `json:"pending_requests"`
	RecentPayments   []models.Payment `json:"recent_payments"`
}

// AdminRepository owns the admin accounts and the dashboard aggregates.
type AdminRepository struct {
	db       *gorm.DB
	payments *PaymentRepository
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db, payments: NewPaymentRepository(db)}
}

func (r *AdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var a models.Admin
	err := r.db.Where("username = ?", username).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepository) GetByID(id uint) (*models.Admin, error) {
	var a models.Admin
	err := r.db.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepository) TouchLogin(id uint, at time.Time) error {
	return r.db.Model(&models.Admin{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	counts := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&s.TotalUsers, &models.User{}, nil},
		{&s.BannedUsers, &models.User{}, []any{"is_banned = ?", true}},
		{&s.TotalCourses, &models.Course{}, nil},
		{&s.ActiveCourses, &models.Course{}, []any{"is_active = ?", true}},
		{&s.TotalPayments, &models.Payment{}, nil},
		{&s.PendingPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusPending}},
		{&s.ApprovedPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusApproved}},
		{&s.RejectedPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusRejected}},
		{&s.PendingRequests, &models.CourseRequest{}, []any{"status = ?", domain.RequestStatusPending}},
	}
	for _, c := range counts {
		q := r.db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	var err error
	if s.TotalRevenue, err = r.payments.ApprovedRevenue(); err != nil {
		return nil, err
	}
	if s.RecentPayments, err = r.payments.Recent(5); err != nil {
		return nil, err
	}
	return &s, nil
}
