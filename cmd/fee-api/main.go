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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusops/fee-api/api/swagger"
	"github.com/campusops/fee-api/internal/handler"
	"github.com/campusops/fee-api/internal/middleware"
	"github.com/campusops/fee-api/internal/repository"
	"github.com/campusops/fee-api/internal/service"
	"github.com/campusops/fee-api/pkg/cache"
	"github.com/campusops/fee-api/pkg/config"
	"github.com/campusops/fee-api/pkg/database"
	"github.com/campusops/fee-api/pkg/logger"
	corsmiddleware "github.com/campusops/fee-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/fee-api/pkg/middleware/requestid"
	"github.com/campusops/fee-api/pkg/storage"
)

// @title Campus Fee API
// @version 1.0.0
// @description Student fee ledger and exam eligibility engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories
	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRecordRepository(db)
	notificationRepo := repository.NewExamNotificationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, cfg.Analytics.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	feeSvc := service.NewFeeService(feeRepo, studentRepo, analyticsSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, feeRepo, validate, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, feeRepo, notificationRepo, paymentRepo, libraryRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, feeRepo, studentRepo, analyticsSvc, validate, logr)
	promotionSvc := service.NewPromotionService(studentRepo, feeRepo, validate, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(analyticsSvc, store, signer, cfg.Reports.WorkerConcurrency, logr)
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	feeHandler := handler.NewFeeHandler(feeSvc, metricsSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc, metricsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	promotionHandler := handler.NewPromotionHandler(promotionSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/change-password", authHandler.ChangePassword)

	// Student roster
	authed.GET("/students", middleware.RBAC("admin", "registrar", "examhead"), studentHandler.List)
	authed.POST("/students", middleware.RBAC("admin", "registrar"), studentHandler.Create)
	authed.GET("/students/:id", middleware.RBAC("admin", "registrar", "examhead", "SELF"), studentHandler.Get)
	authed.GET("/students/usn/:usn", middleware.RBAC("admin", "registrar", "examhead"), studentHandler.GetByUSN)
	authed.PUT("/students/:id", middleware.RBAC("admin", "registrar"), studentHandler.Update)
	authed.DELETE("/students/:id", middleware.RBAC("admin"), studentHandler.Deactivate)
	authed.POST("/students/:id/reset-password", middleware.RBAC("admin", "registrar"), studentHandler.ResetPassword)

	// Fee ledger
	authed.GET("/students/:id/ledger", middleware.RBAC("admin", "registrar", "examhead", "SELF"), feeHandler.GetLedger)
	authed.POST("/fees/concession", middleware.RBAC("admin", "registrar"), feeHandler.ApplyConcession)
	authed.POST("/fees/mark-paid", middleware.RBAC("admin", "registrar"), feeHandler.MarkFullyPaid)
	authed.POST("/fees/assign", middleware.RBAC("admin", "registrar"), feeHandler.AssignFee)
	authed.POST("/fees/government-rollout", middleware.RBAC("admin"), feeHandler.RolloutGovernmentFees)

	// Eligibility
	authed.GET("/students/:id/eligibility", middleware.RBAC("admin", "registrar", "examhead", "SELF"), eligibilityHandler.Snapshot)
	authed.GET("/students/:id/exam-registration/:notificationId", middleware.RBAC("admin", "examhead", "SELF"), eligibilityHandler.CheckRegistration)

	// Exam notifications
	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/:id", notificationHandler.Get)
	authed.POST("/notifications", middleware.RBAC("admin", "examhead"), notificationHandler.Create)
	authed.PUT("/notifications/:id/extend", middleware.RBAC("admin", "examhead"), notificationHandler.Extend)
	authed.DELETE("/notifications/:id", middleware.RBAC("admin", "examhead"), notificationHandler.Delete)

	// Payments
	authed.POST("/payments", middleware.RBAC("admin", "registrar"), paymentHandler.Record)
	authed.GET("/payments", middleware.RBAC("admin", "registrar"), paymentHandler.List)
	authed.POST("/payments/:id/complete", middleware.RBAC("admin", "registrar"), paymentHandler.Complete)
	authed.POST("/payments/:id/fail", middleware.RBAC("admin", "registrar"), paymentHandler.Fail)
	authed.GET("/students/:id/payments", middleware.RBAC("admin", "registrar", "SELF"), paymentHandler.ListByStudent)

	// Promotions
	authed.POST("/promotions/preview", middleware.RBAC("admin", "registrar"), promotionHandler.Preview)
	authed.POST("/promotions/execute", middleware.RBAC("admin"), promotionHandler.Execute)

	// Analytics
	authed.GET("/analytics/dashboard", middleware.RBAC("admin", "registrar", "examhead"), analyticsHandler.Dashboard)
	authed.GET("/analytics/defaulters", middleware.RBAC("admin", "registrar", "examhead"), analyticsHandler.Defaulters)

	// Reports
	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports/defaulters", middleware.RBAC("admin", "registrar"), reportHandler.Request)
		authed.GET("/reports/:id", middleware.RBAC("admin", "registrar"), reportHandler.Get)
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
