package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"coursebot/internal/repository"
	"coursebot/internal/storage"
	"coursebot/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadBytes = 5 << 20

type UploadHandler struct {
	courses *repository.CourseRepository
	files   *storage.ProofStore
	cloud   cloudinary.Uploader // nil when Cloudinary is not configured
	log     *zap.Logger
}

func NewUploadHandler(courses *repository.CourseRepository, files *storage.ProofStore, cloud cloudinary.Uploader, log *zap.Logger) *UploadHandler {
	return &UploadHandler{courses: courses, files: files, cloud: cloud, log: log}
}

// readImage reads the multipart "file" field and checks it decodes as an image.
func readImage(c *gin.Context) ([]byte, string, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return nil, "", false
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return nil, "", false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return nil, "", false
	}
	format, err := storage.ValidateImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a supported image"})
		return nil, "", false
	}
	return data, format, true
}

// UploadQR handles POST /admin/courses/:id/qr. The QR is shown to buyers who pick UPI.
func (h *UploadHandler) UploadQR(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "course not found", h.log)
		return
	}
	data, format, ok := readImage(c)
	if !ok {
		return
	}
	name, err := h.files.SaveQR(course.ID, data, storage.Extension(format))
	if err != nil {
		h.log.Error("save qr", zap.Uint("course_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	course.QRCodeImage = name
	if err := h.courses.Update(course); err != nil {
		h.log.Error("update course qr", zap.Uint("course_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// UploadCourseImage handles POST /admin/courses/:id/image. The image is hosted
// on Cloudinary and its URL becomes the course's image link.
func (h *UploadHandler) UploadCourseImage(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image hosting not configured"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		notFoundOr500(c, err, "course not found", h.log)
		return
	}
	data, _, ok := readImage(c)
	if !ok {
		return
	}
	folder := "coursebot/courses"
	publicID := "course_" + strconv.FormatUint(uint64(id), 10) + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	url, err := h.cloud.UploadImage(c.Request.Context(), bytes.NewReader(data), folder, publicID)
	if err != nil {
		h.log.Error("upload course image", zap.Uint("course_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	course.ImageLink = url
	if err := h.courses.Update(course); err != nil {
		h.log.Error("update course image", zap.Uint("course_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// ServeProof handles GET /admin/uploads/:filename.
func (h *UploadHandler) ServeProof(c *gin.Context) {
	path, ok := h.files.ProofPath(c.Param("filename"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}
