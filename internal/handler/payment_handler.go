package handler

import (
	"errors"
	"net/http"

	"coursebot/internal/domain"
	"coursebot/internal/middleware"
	"coursebot/internal/models"
	"coursebot/internal/repository"
	"coursebot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *repository.PaymentRepository
	svc      *service.PaymentService
	logRepo  *repository.ActionLogRepository
	log      *zap.Logger
}

func NewPaymentHandler(payments *repository.PaymentRepository, svc *service.PaymentService, logRepo *repository.ActionLogRepository, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, svc: svc, logRepo: logRepo, log: log}
}

// List handles GET /admin/payments?status=&search=.
func (h *PaymentHandler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", domain.PaymentStatusPending, domain.PaymentStatusApproved, domain.PaymentStatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.payments.List(status, c.Query("search"), page, limit)
	if err != nil {
		h.log.Error("list payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.payments.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "payment not found", h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Approve handles POST /admin/payments/:id/approve. Only pending payments move;
// anything else answers 409.
func (h *PaymentHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		h.reviewError(c, err)
		return
	}
	h.audit(c, p, domain.ActionPaymentApproved)
	c.JSON(http.StatusOK, p)
}

// Reject handles POST /admin/payments/:id/reject.
func (h *PaymentHandler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Reject(c.Request.Context(), id)
	if err != nil {
		h.reviewError(c, err)
		return
	}
	h.audit(c, p, domain.ActionPaymentRejected)
	c.JSON(http.StatusOK, p)
}

// Resend handles POST /admin/payments/:id/resend for approved payments whose
// link never arrived.
func (h *PaymentHandler) Resend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Redeliver(c.Request.Context(), id)
	if err != nil {
		h.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) reviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotPending), errors.Is(err, service.ErrPaymentNotApproved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		notFoundOr500(c, err, "payment not found", h.log)
	}
}

func (h *PaymentHandler) audit(c *gin.Context, p *models.Payment, action string) {
	if p.User == nil {
		return
	}
	details := "Payment #" + domain.FormatID(p.ID) + " by " + middleware.GetUsername(c)
	writeAudit(c, h.logRepo, h.log, p.User.TelegramID, action, details)
}
