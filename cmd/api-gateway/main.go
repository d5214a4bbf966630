package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smpn3pacet/database-siswa-api/api/swagger"
	"github.com/smpn3pacet/database-siswa-api/internal/handler"
	"github.com/smpn3pacet/database-siswa-api/internal/middleware"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	"github.com/smpn3pacet/database-siswa-api/internal/repository"
	"github.com/smpn3pacet/database-siswa-api/internal/service"
	"github.com/smpn3pacet/database-siswa-api/pkg/cache"
	"github.com/smpn3pacet/database-siswa-api/pkg/config"
	"github.com/smpn3pacet/database-siswa-api/pkg/database"
	"github.com/smpn3pacet/database-siswa-api/pkg/jobs"
	"github.com/smpn3pacet/database-siswa-api/pkg/logger"
	corsmiddleware "github.com/smpn3pacet/database-siswa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smpn3pacet/database-siswa-api/pkg/middleware/requestid"
	"github.com/smpn3pacet/database-siswa-api/pkg/storage"
)

// @title Database Siswa API
// @version 1.0.0
// @description Student record, document and completeness management for SMPN 3 Pacet
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, completeness cache disabled", "error", err)
		redisClient = nil
	}

	documentStorage, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	exportArchive, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export archive", "error", err)
	}

	// Repositories
	studentRepo := repository.NewStudentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Services
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, logr)
	completenessService := service.NewCompletenessService(
		studentRepo, documentRepo, academicRepo, cacheService,
		cfg.Completeness.CacheEnabled && redisClient != nil, cfg.Completeness.CacheTTL, logr)
	correctionService := service.NewCorrectionService(correctionRepo, studentRepo, auditRepo, completenessService, logr)
	documentService := service.NewDocumentService(documentRepo, studentRepo, documentStorage, signer,
		auditRepo, completenessService, logr, service.DocumentServiceConfig{
			MaxFileSize:  cfg.Documents.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Documents.AllowedMIMEs,
			APIPrefix:    cfg.APIPrefix,
		})
	academicService := service.NewAcademicService(academicRepo, studentRepo, completenessService, logr)
	studentService := service.NewStudentService(studentRepo, documentRepo, academicRepo,
		correctionRepo, notificationRepo, completenessService, completenessService, nil, logr)
	exportService := service.NewExportService(studentRepo, documentRepo, academicRepo, completenessService, exportArchive, logr)
	authService := service.NewAuthService(userRepo, auditRepo, service.AuthConfig{
		JWTSecret:         cfg.JWT.Secret,
		Expiration:        cfg.JWT.Expiration,
		RefreshExpiration: cfg.JWT.RefreshExpiration,
	}, logr)

	deliveryQueue := jobs.NewQueue("notification-delivery", func(_ context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.NotificationDeliveryJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("unexpected payload type for job %s", job.ID))
		}
		// Outbound channels (WhatsApp gateway, email) hook in here. The log
		// entry itself is already persisted before the job is enqueued.
		logr.Sugar().Infow("notification delivered",
			"notification_id", payload.NotificationID, "student_id", payload.StudentID)
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationService := service.NewNotificationService(notificationRepo, completenessService, deliveryQueue, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	documentHandler := handler.NewDocumentHandler(documentService)
	correctionHandler := handler.NewCorrectionHandler(correctionService, documentStorage)
	completenessHandler := handler.NewCompletenessHandler(completenessService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	academicHandler := handler.NewAcademicHandler(academicService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	students := api.Group("/students", middleware.JWT(authService))
	{
		students.GET("", staffOnly, studentHandler.List)
		students.POST("", staffOnly, studentHandler.Create)
		students.GET("/:id", middleware.RequireStudentAccess(), studentHandler.Get)
		students.PUT("/:id", staffOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Deactivate)

		students.GET("/:id/documents", middleware.RequireStudentAccess(), documentHandler.List)
		students.POST("/:id/documents", middleware.RequireStudentAccess(), documentHandler.Upload)

		students.GET("/:id/corrections", middleware.RequireStudentAccess(), correctionHandler.ListByStudent)
		students.POST("/:id/corrections", middleware.RequireStudentAccess(), correctionHandler.Propose)
		students.GET("/:id/correctable-fields", middleware.RequireStudentAccess(), correctionHandler.CorrectableFields)

		students.GET("/:id/completeness", middleware.RequireStudentAccess(), completenessHandler.Report)

		students.GET("/:id/notifications", middleware.RequireStudentAccess(), notificationHandler.List)
		students.GET("/:id/notifications/unread-count", middleware.RequireStudentAccess(), notificationHandler.CountUnread)
		students.POST("/:id/notifications", staffOnly, notificationHandler.Create)

		students.GET("/:id/academics", middleware.RequireStudentAccess(), academicHandler.List)
		students.PUT("/:id/academics", staffOnly, academicHandler.Upsert)
	}

	documents := api.Group("/documents", middleware.JWT(authService))
	{
		documents.GET("/:id/download-url", documentHandler.DownloadURL)
		documents.POST("/:id/approve", staffOnly, documentHandler.Approve)
		documents.POST("/:id/request-revision", staffOnly, documentHandler.RequestRevision)
		documents.DELETE("/:id", staffOnly, documentHandler.Delete)
	}
	// Signed token carries its own authorization.
	api.GET("/documents/:id/download", documentHandler.Download)

	corrections := api.Group("/corrections", middleware.JWT(authService), adminOnly)
	{
		corrections.GET("/pending", correctionHandler.ListPending)
		corrections.POST("/:id/approve", correctionHandler.Approve)
		corrections.POST("/:id/reject", correctionHandler.Reject)
	}

	notifications := api.Group("/notifications", middleware.JWT(authService))
	{
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	exports := api.Group("/exports", middleware.JWT(authService), staffOnly)
	{
		exports.GET("/completeness", exportHandler.CompletenessRecap)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deliveryQueue.Start(ctx)
	defer deliveryQueue.Stop()

	// Archived recaps are regenerable; sweep old ones on an interval.
	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := exportArchive.CleanupOlderThan(cfg.Exports.Retention)
				if err != nil {
					logr.Sugar().Warnw("export archive cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					logr.Sugar().Infow("export archive cleaned", "removed", len(deleted))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
