package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-billing-api/api/swagger"
	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academy-billing-api/internal/middleware"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/cache"
	"github.com/noah-isme/academy-billing-api/pkg/config"
	"github.com/noah-isme/academy-billing-api/pkg/database"
	"github.com/noah-isme/academy-billing-api/pkg/jobs"
	"github.com/noah-isme/academy-billing-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/requestid"
	"github.com/noah-isme/academy-billing-api/pkg/storage"
)

// @title Academy Billing API
// @version 1.0.0
// @description Monthly billing reconciliation for multi-academy franchises
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	readiness := map[string]handler.Pinger{"postgres": db}

	var redisClient *redis.Client
	if cfg.Billing.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
		client := redisClient
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	academyRepo := repository.NewAcademyRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Billing.CacheTTL, logr, cfg.Billing.CacheEnabled)

	billingSvc := service.NewBillingService(
		billing.NewReconciler(cfg.Billing.Location),
		studentRepo,
		statusLogRepo,
		pricingRepo,
		academyRepo,
		cacheSvc,
		metricsSvc,
		logr,
		service.BillingServiceConfig{CacheTTL: cfg.Billing.CacheTTL},
	)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	statusSvc := service.NewStudentStatusService(studentRepo, statusLogRepo, userRepo, billingSvc, validate, metricsSvc, logr)
	pricingSvc := service.NewPricingService(pricingRepo, academyRepo, userRepo, billingSvc, validate, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportHandler := handler.NewExportHandler(nil)
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportJobSvc, queue, err := setupExports(rootCtx, cfg, db, billingSvc, validate, metricsSvc, logr)
		if err != nil {
			logr.Fatal("failed to init exports", zap.Error(err))
		}
		exportQueue = queue
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	billingHandler := handler.NewBillingHandler(billingSvc)
	statusHandler := handler.NewStudentStatusHandler(statusSvc)
	academyHandler := handler.NewAcademyHandler(pricingSvc)
	userHandler := handler.NewUserHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/exports/:token", exportHandler.Download)

	admin := api.Group("/admin")
	admin.GET("/billing-stats",
		internalmiddleware.PlainErrors(),
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(models.RoleSuperAdmin),
		internalmiddleware.Audit(userRepo, logr, models.AuditActionBillingView, "billing_stats"),
		billingHandler.Stats,
	)

	secured := admin.Group("", internalmiddleware.JWT(authSvc))
	secured.PATCH("/students/:id/status", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), statusHandler.Update)
	secured.GET("/students/:id/status-log", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), statusHandler.History)
	secured.GET("/academies", internalmiddleware.RequireRoles(models.RoleSuperAdmin), academyHandler.List)
	secured.GET("/academies/:id/pricing", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), academyHandler.GetPricing)
	secured.PUT("/academies/:id/pricing", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), academyHandler.UpdatePricing)
	secured.POST("/users/:id/password", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.ResetPassword)

	exports := secured.Group("/billing-exports", internalmiddleware.RequireRoles(models.RoleSuperAdmin))
	exports.POST("", internalmiddleware.Audit(userRepo, logr, models.AuditActionExportRequest, "billing_exports"), exportHandler.Create)
	exports.GET("/:id", exportHandler.Status)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "billing_timezone", cfg.Billing.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}

func setupExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	billingSvc *service.BillingService,
	validate *validator.Validate,
	metricsSvc *service.MetricsService,
	logr *zap.Logger,
) (*service.ExportJobService, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(billingSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	jobRepo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(jobRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("billing-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnGiveUp: func(_ context.Context, job jobs.Job, err error) {
			logr.Error("billing export abandoned", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
		},
	})
	queue.Start(ctx)

	jobSvc := service.NewExportJobService(jobRepo, queue, exportSvc, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	jobSvc.RecoverPendingJobs(ctx)
	jobSvc.StartCleanup(ctx)
	return jobSvc, queue, nil
}
