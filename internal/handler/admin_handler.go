package handler

import (
	"errors"
	"net/http"
	"strconv"

	"coursebot/internal/domain"
	"coursebot/internal/middleware"
	"coursebot/internal/models"
	"coursebot/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userLogLimit = 50

type AdminHandler struct {
	adminRepo *repository.AdminRepository
	userRepo  *repository.UserRepository
	logRepo   *repository.ActionLogRepository
	log       *zap.Logger
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	userRepo *repository.UserRepository,
	logRepo *repository.ActionLogRepository,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminRepo: adminRepo,
		userRepo:  userRepo,
		logRepo:   logRepo,
		log:       log,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		h.log.Error("dashboard stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users?search=&banned=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	search := c.Query("search")
	var banned *bool
	if v := c.Query("banned"); v != "" {
		b := v == "true" || v == "1"
		banned = &b
	}
	page, limit := parsePagination(c)
	users, total, err := h.userRepo.List(search, banned, page, limit)
	if err != nil {
		h.log.Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// GetUser handles GET /admin/users/:id with the user's latest actions.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.userRepo.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "user not found", h.log)
		return
	}
	logs, err := h.logRepo.RecentForUser(u.TelegramID, userLogLimit)
	if err != nil {
		h.log.Error("user logs", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "logs": logs})
}

// BanUser handles POST /admin/users/:id/ban.
func (h *AdminHandler) BanUser(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.setBan(c, true, req.Reason)
}

// UnbanUser handles POST /admin/users/:id/unban.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	h.setBan(c, false, "")
}

func (h *AdminHandler) setBan(c *gin.Context, banned bool, reason string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.userRepo.SetBan(id, banned, reason); err != nil {
		notFoundOr500(c, err, "user not found", h.log)
		return
	}
	u, err := h.userRepo.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "user not found", h.log)
		return
	}
	action, details := domain.ActionUserUnbanned, "Unbanned by "+middleware.GetUsername(c)
	if banned {
		action, details = domain.ActionUserBanned, "Banned by "+middleware.GetUsername(c)
		if reason != "" {
			details += ": " + reason
		}
	}
	writeAudit(c, h.logRepo, h.log, u.TelegramID, action, details)
	c.JSON(http.StatusOK, u)
}

// ListLogs handles GET /admin/logs?telegram_id=&action=.
func (h *AdminHandler) ListLogs(c *gin.Context) {
	var tgID int64
	if v := c.Query("telegram_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
			return
		}
		tgID = n
	}
	page, limit := parsePagination(c)
	logs, total, err := h.logRepo.List(tgID, c.Query("action"), page, limit)
	if err != nil {
		h.log.Error("list logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total, "page": page, "limit": limit})
}

// writeAudit records an admin action against a chat user. Failures are logged only.
func writeAudit(c *gin.Context, repo *repository.ActionLogRepository, log *zap.Logger, telegramID int64, action, details string) {
	err := repo.Create(c.Request.Context(), &models.ActionLog{
		TelegramID: telegramID,
		Action:     action,
		Details:    details,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		log.Warn("audit log", zap.String("action", action), zap.Error(err))
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// parseID reads the :id path segment and answers 400 itself when it is malformed.
func parseID(c *gin.Context) (uint, bool) {
	id := domain.ParseID(c.Param("id"))
	if !id.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id.Value, true
}

func notFoundOr500(c *gin.Context, err error, notFound string, log *zap.Logger) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
