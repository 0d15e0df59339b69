package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"coursebot/config"
	"coursebot/internal/bot"
	"coursebot/internal/database"
	"coursebot/internal/logger"
	"coursebot/internal/metrics"
	"coursebot/internal/ratelimit"
	"coursebot/internal/repository"
	"coursebot/internal/router"
	"coursebot/internal/service"
	"coursebot/internal/session"
	"coursebot/internal/storage"
	"coursebot/internal/ws"
	"coursebot/pkg/cloudinary"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	lg, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		lg.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}
	if created, err := database.SeedAdmin(db, &cfg.Admin); err != nil {
		lg.Fatal("seed admin", zap.Error(err))
	} else if created {
		lg.Info("seeded admin account", zap.String("username", cfg.Admin.Username))
	}

	m, err := metrics.New(nil)
	if err != nil {
		lg.Fatal("metrics", zap.Error(err))
	}

	var cloud cloudinary.Uploader
	if cfg.Cloudinary.Enabled() {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			lg.Fatal("cloudinary", zap.Error(err))
		}
	} else {
		lg.Info("cloudinary disabled: set CLOUDINARY_* to mirror proofs and host course images")
	}
	files, err := storage.NewProofStore(cfg.Storage.UploadDir, cloud, lg)
	if err != nil {
		lg.Fatal("upload dir", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	settings := service.NewSettingsService(cfg, repository.NewSettingRepository(db), lg)

	var workers sync.WaitGroup
	var notifier service.AccessNotifier
	if cfg.Bot.Token != "" {
		tg, err := bot.NewTelegram(cfg.Bot.Token, lg)
		if err != nil {
			lg.Fatal("telegram", zap.Error(err))
		}
		limiter := ratelimit.New(cfg.Bot.RateLimitPerMinute, time.Minute)
		funnel := bot.NewFunnel(tg, session.NewStore(), bot.Deps{
			Users:      repository.NewUserRepository(db),
			Courses:    repository.NewCourseRepository(db),
			Categories: repository.NewCategoryRepository(db),
			Payments:   repository.NewPaymentRepository(db),
			Requests:   repository.NewCourseRequestRepository(db),
			Logs:       repository.NewActionLogRepository(db),
			Settings:   settings,
			Proofs:     files,
			Shortener:  service.NewTinyURLShortener(lg),
			Events:     hub,
			Metrics:    m,
			Limiter:    limiter,
			Log:        lg.Named("bot"),
		})
		notifier = funnel
		workers.Add(2)
		go func() {
			defer workers.Done()
			limiter.Run(ctx, 5*time.Minute)
		}()
		go func() {
			defer workers.Done()
			funnel.Run(ctx, tg.Updates(ctx))
			lg.Info("bot stopped")
		}()
	} else {
		lg.Warn("BOT_TOKEN not set: running the admin API only, approvals will not reach users")
	}

	loginLimiter := ratelimit.New(10, time.Minute)
	workers.Add(1)
	go func() {
		defer workers.Done()
		loginLimiter.Run(ctx, 5*time.Minute)
	}()

	payments := service.NewPaymentService(repository.NewPaymentRepository(db), notifier, hub, m, lg)
	engine := router.Setup(cfg, db, router.Deps{
		Log:          lg,
		Metrics:      m,
		Hub:          hub,
		Payments:     payments,
		Settings:     settings,
		Files:        files,
		Cloud:        cloud,
		LoginLimiter: loginLimiter,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		lg.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown", zap.Error(err))
	}
	workers.Wait()
	lg.Info("server stopped")
}
