package service

import (
	"context"
	"errors"
	"time"

	"coursebot/internal/domain"
	"coursebot/internal/metrics"
	"coursebot/internal/models"
	"coursebot/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrPaymentNotPending  = errors.New("payment is not pending")
	ErrPaymentNotApproved = errors.New("payment is not approved")
)

// AccessNotifier tells a chat user about the outcome of their payment.
type AccessNotifier interface {
	DeliverAccess(ctx context.Context, telegramID int64, course *models.Course) error
	NotifyRejected(ctx context.Context, telegramID int64, course *models.Course) error
}

// EventPublisher fans out admin-facing events such as new or reviewed payments.
type EventPublisher interface {
	Publish(event string, payload any)
}

// PaymentService performs admin review of payments. Status moves only out of
// pending; delivery to the user is best effort and may be re-triggered.
type PaymentService struct {
	payments *repository.PaymentRepository
	notifier AccessNotifier
	events   EventPublisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(payments *repository.PaymentRepository, notifier AccessNotifier, events EventPublisher, m *metrics.Metrics, log *zap.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		notifier: notifier,
		events:   events,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *PaymentService) Approve(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.transition(id, domain.PaymentStatusApproved)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, p)
	s.publish("payment.approved", p)
	return p, nil
}

func (s *PaymentService) Reject(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.transition(id, domain.PaymentStatusRejected)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil && p.User != nil {
		if err := s.notifier.NotifyRejected(ctx, p.User.TelegramID, p.Course); err != nil {
			s.log.Warn("notify rejection", zap.Uint("payment_id", p.ID), zap.Error(err))
		}
	}
	s.publish("payment.rejected", p)
	return p, nil
}

// Redeliver sends the access link again for an approved payment.
func (s *PaymentService) Redeliver(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.payments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusApproved {
		return nil, ErrPaymentNotApproved
	}
	s.deliver(ctx, p)
	return p, nil
}

func (s *PaymentService) transition(id uint, status string) (*models.Payment, error) {
	p, err := s.payments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}
	now := s.now().UTC()
	ok, err := s.payments.Transition(id, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPaymentNotPending
	}
	p.Status = status
	p.ActionAt = &now
	s.metrics.Payment(p.Method, status)
	s.log.Info("payment reviewed", zap.Uint("payment_id", p.ID), zap.String("status", status))
	return p, nil
}

func (s *PaymentService) deliver(ctx context.Context, p *models.Payment) {
	if s.notifier == nil || p.User == nil || p.Course == nil {
		s.log.Warn("access not delivered", zap.Uint("payment_id", p.ID))
		return
	}
	if err := s.notifier.DeliverAccess(ctx, p.User.TelegramID, p.Course); err != nil {
		s.log.Error("deliver access", zap.Uint("payment_id", p.ID), zap.Int64("user_id", p.User.TelegramID), zap.Error(err))
	}
}

func (s *PaymentService) publish(event string, p *models.Payment) {
	if s.events != nil {
		s.events.Publish(event, p)
	}
}
