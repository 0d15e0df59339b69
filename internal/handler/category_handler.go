package handler

import (
	"errors"
	"net/http"
	"strings"

	"coursebot/internal/models"
	"coursebot/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	categories *repository.CategoryRepository
	log        *zap.Logger
}

func NewCategoryHandler(categories *repository.CategoryRepository, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log}
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categories.ListWithCounts()
	if err != nil {
		h.log.Error("list categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Create handles POST /admin/categories. Names are unique ignoring case.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	cat := &models.Category{Name: name}
	if err := h.categories.Create(cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
			return
		}
		h.log.Error("create category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Rename(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	cat, err := h.categories.Rename(id, name)
	if errors.Is(err, repository.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
		return
	}
	if err != nil {
		notFoundOr500(c, err, "category not found", h.log)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /admin/categories/:id. Its courses become uncategorized.
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.categories.Delete(id); err != nil {
		notFoundOr500(c, err, "category not found", h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
