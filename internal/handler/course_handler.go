package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CourseHandler struct {
	courses    *repository.CourseRepository
	categories *repository.CategoryRepository
	log        *zap.Logger
}

func NewCourseHandler(courses *repository.CourseRepository, categories *repository.CategoryRepository, log *zap.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, categories: categories, log: log}
}

type CourseRequest struct {
	Title          string          `json:"title" binding:"required,max=255"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	CategoryID     *uint           `json:"category_id"`
	IsActive       *bool           `json:"is_active"`
	IsFree         bool            `json:"is_free"`
	FileLink       string          `json:"file_link" binding:"required,max=1024"`
	ImageLink      string          `json:"image_link" binding:"max=1024"`
	DemoVideoLink  string          `json:"demo_video_link" binding:"max=1024"`
	PaymentOptions []string        `json:"payment_options"`
}

// apply validates req and copies it onto course.
func (h *CourseHandler) apply(req *CourseRequest, course *models.Course) error {
	if req.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if !req.IsFree && req.Price.IsZero() {
		return errors.New("price is required unless the course is free")
	}
	var opts []string
	for _, o := range req.PaymentOptions {
		o = strings.ToLower(strings.TrimSpace(o))
		if !domain.IsPaymentMethod(o) {
			return fmt.Errorf("unknown payment option %q", o)
		}
		opts = append(opts, o)
	}
	categoryID := req.CategoryID
	if categoryID != nil && *categoryID == 0 {
		categoryID = nil
	}
	if categoryID != nil {
		if _, err := h.categories.GetByID(*categoryID); err != nil {
			return fmt.Errorf("category %d does not exist", *categoryID)
		}
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Price = req.Price.Round(2)
	course.IsFree = req.IsFree
	if req.IsFree {
		course.Price = decimal.Zero
	}
	course.CategoryID = categoryID
	course.Category = nil
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	course.FileLink = strings.TrimSpace(req.FileLink)
	course.ImageLink = strings.TrimSpace(req.ImageLink)
	course.DemoVideoLink = strings.TrimSpace(req.DemoVideoLink)
	course.PaymentOptions = strings.Join(opts, ",")
	return nil
}

// List handles GET /admin/courses?search=.
func (h *CourseHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.courses.List(c.Query("search"), page, limit)
	if err != nil {
		h.log.Error("list courses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "course not found", h.log)
		return
	}
	c.JSON(http.StatusOK, course)
}

// Create handles POST /admin/courses. New courses are active unless is_active is false.
func (h *CourseHandler) Create(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course := &models.Course{IsActive: true}
	if err := h.apply(&req, course); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.courses.Create(course); err != nil {
		h.log.Error("create course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}
	h.log.Info("course created", zap.Uint("course_id", course.ID), zap.String("title", course.Title))
	c.JSON(http.StatusCreated, course)
}

// Update handles PUT /admin/courses/:id.
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "course not found", h.log)
		return
	}
	if err := h.apply(&req, course); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.courses.Update(course); err != nil {
		h.log.Error("update course", zap.Uint("course_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// Delete handles DELETE /admin/courses/:id. Payments keep pointing at the
// soft-deleted row.
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.courses.Delete(id); err != nil {
		notFoundOr500(c, err, "course not found", h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
