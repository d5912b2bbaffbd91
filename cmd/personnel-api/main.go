package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edupanel/personnel-api/api/swagger"
	"github.com/edupanel/personnel-api/internal/handler"
	"github.com/edupanel/personnel-api/internal/middleware"
	"github.com/edupanel/personnel-api/internal/repository"
	"github.com/edupanel/personnel-api/internal/service"
	"github.com/edupanel/personnel-api/pkg/cache"
	"github.com/edupanel/personnel-api/pkg/config"
	"github.com/edupanel/personnel-api/pkg/database"
	"github.com/edupanel/personnel-api/pkg/logger"
	corsmiddleware "github.com/edupanel/personnel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupanel/personnel-api/pkg/middleware/requestid"
)

// @title School Personnel API
// @version 1.0.0
// @description Personnel directory, account linkage and provisioning backend
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Personnel.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, personnel cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Personnel.CacheTTL, logr, cacheRepo != nil)

	directoryRepo := repository.NewDirectoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	directorySvc := service.NewDirectoryService(directoryRepo, auditRepo, cacheSvc, validate, logr)
	accountSvc := service.NewAccountService(accountRepo, auditRepo, cacheSvc, validate, logr)
	provisioningSvc := service.NewProvisioningService(accountRepo, auditRepo, cacheSvc, cfg.Provisioning, validate, logr)
	reconciliationSvc := service.NewReconciliationService(directoryRepo, accountRepo, cacheSvc, metricsSvc, logr)
	linkageSvc := service.NewLinkageService(directoryRepo, accountRepo, auditRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(reconciliationSvc)

	directoryHandler := handler.NewDirectoryHandler(directorySvc, linkageSvc)
	accountHandler := handler.NewAccountHandler(accountSvc, provisioningSvc)
	personnelHandler := handler.NewPersonnelHandler(reconciliationSvc, linkageSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		teachers := api.Group("/teachers")
		teachers.GET("", directoryHandler.List)
		teachers.POST("", directoryHandler.Create)
		teachers.GET("/:id", directoryHandler.Get)
		teachers.PUT("/:id", directoryHandler.Update)
		teachers.DELETE("/:id", directoryHandler.Delete)
		teachers.POST("/:id/link-user", directoryHandler.LinkUser)

		users := api.Group("/users")
		users.GET("", accountHandler.List)
		users.POST("", accountHandler.Create)
		users.GET("/:id", accountHandler.Get)
		users.PUT("/:id", accountHandler.Update)
		users.DELETE("/:id", accountHandler.Delete)
		users.PATCH("/:id/reset-password", accountHandler.ResetPassword)

		personnel := api.Group("/personnel")
		personnel.GET("", personnelHandler.Unified)
		personnel.GET("/eligible-teachers", personnelHandler.EligibleTeachers)
		personnel.GET("/eligible-accounts", personnelHandler.EligibleAccounts)
		personnel.GET("/export", personnelHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
