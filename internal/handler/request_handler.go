package handler

import (
	"net/http"

	"coursebot/internal/domain"
	"coursebot/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CourseRequestHandler struct {
	requests *repository.CourseRequestRepository
	log      *zap.Logger
}

func NewCourseRequestHandler(requests *repository.CourseRequestRepository, log *zap.Logger) *CourseRequestHandler {
	return &CourseRequestHandler{requests: requests, log: log}
}

// List handles GET /admin/course-requests?status=.
func (h *CourseRequestHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.requests.List(c.Query("status"), page, limit)
	if err != nil {
		h.log.Error("list course requests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

func (h *CourseRequestHandler) Fulfill(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	changed, err := h.requests.MarkFulfilled(id)
	if err != nil {
		notFoundOr500(c, err, "request not found", h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.RequestStatusFulfilled, "changed": changed})
}

func (h *CourseRequestHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.requests.Delete(id); err != nil {
		notFoundOr500(c, err, "request not found", h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
