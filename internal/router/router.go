package router

import (
	"net/http"
	"time"

	"coursebot/config"
	"coursebot/internal/handler"
	"coursebot/internal/metrics"
	"coursebot/internal/middleware"
	"coursebot/internal/ratelimit"
	"coursebot/internal/repository"
	"coursebot/internal/service"
	"coursebot/internal/storage"
	"coursebot/internal/ws"
	"coursebot/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the long-lived pieces shared with the bot process.
type Deps struct {
	Log          *zap.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer // nil serves the default registry
	Hub          *ws.Hub
	Payments     *service.PaymentService
	Settings     *service.SettingsService
	Files        *storage.ProofStore
	Cloud        cloudinary.Uploader
	LoginLimiter *ratelimit.Limiter
}

func Setup(cfg *config.Config, db *gorm.DB, d Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(d.Metrics.Handler())

	// Repositories
	adminRepo := repository.NewAdminRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	requestRepo := repository.NewCourseRequestRepository(db)
	logRepo := repository.NewActionLogRepository(db)

	authSvc := service.NewAuthService(cfg, adminRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, d.Log)
	adminHandler := handler.NewAdminHandler(adminRepo, userRepo, logRepo, d.Log)
	courseHandler := handler.NewCourseHandler(courseRepo, categoryRepo, d.Log)
	categoryHandler := handler.NewCategoryHandler(categoryRepo, d.Log)
	paymentHandler := handler.NewPaymentHandler(paymentRepo, d.Payments, logRepo, d.Log)
	settingsHandler := handler.NewSettingsHandler(d.Settings, d.Log)
	requestHandler := handler.NewCourseRequestHandler(requestRepo, d.Log)
	uploadHandler := handler.NewUploadHandler(courseRepo, d.Files, d.Cloud, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	loginLimiter := d.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = ratelimit.New(10, time.Minute)
	}
	r.POST("/admin/login", middleware.RateLimit(loginLimiter), authHandler.Login)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)

		admin.GET("/courses", courseHandler.List)
		admin.POST("/courses", courseHandler.Create)
		admin.GET("/courses/:id", courseHandler.Get)
		admin.PUT("/courses/:id", courseHandler.Update)
		admin.DELETE("/courses/:id", courseHandler.Delete)
		admin.POST("/courses/:id/qr", uploadHandler.UploadQR)
		admin.POST("/courses/:id/image", uploadHandler.UploadCourseImage)

		admin.GET("/categories", categoryHandler.List)
		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Rename)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.GET("/payments", paymentHandler.List)
		admin.GET("/payments/:id", paymentHandler.Get)
		admin.POST("/payments/:id/approve", paymentHandler.Approve)
		admin.POST("/payments/:id/reject", paymentHandler.Reject)
		admin.POST("/payments/:id/resend", paymentHandler.Resend)

		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.POST("/users/:id/ban", adminHandler.BanUser)
		admin.POST("/users/:id/unban", adminHandler.UnbanUser)

		admin.GET("/logs", adminHandler.ListLogs)

		admin.GET("/settings", settingsHandler.Get)
		admin.PUT("/settings", settingsHandler.Update)

		admin.GET("/course-requests", requestHandler.List)
		admin.POST("/course-requests/:id/fulfill", requestHandler.Fulfill)
		admin.DELETE("/course-requests/:id", requestHandler.Delete)

		admin.GET("/uploads/:filename", uploadHandler.ServeProof)
	}

	r.GET("/ws/admin", ws.UpgradeAdminWS(&cfg.JWT, d.Hub, d.Log))

	return r
}
