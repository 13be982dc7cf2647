package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/open-sams/sams-api/api/swagger"
	"github.com/open-sams/sams-api/internal/handler"
	"github.com/open-sams/sams-api/internal/middleware"
	"github.com/open-sams/sams-api/internal/models"
	"github.com/open-sams/sams-api/internal/repository"
	"github.com/open-sams/sams-api/internal/service"
	"github.com/open-sams/sams-api/pkg/cache"
	"github.com/open-sams/sams-api/pkg/config"
	"github.com/open-sams/sams-api/pkg/database"
	"github.com/open-sams/sams-api/pkg/logger"
	corsmiddleware "github.com/open-sams/sams-api/pkg/middleware/cors"
	reqidmiddleware "github.com/open-sams/sams-api/pkg/middleware/requestid"
)

// @title SAMS API
// @version 0.1.0
// @description School administration service: timetables, swap approvals, substitutions
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ScheduleTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	swapRepo := repository.NewSwapRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)

	tokenSvc := service.NewTokenService(cfg.JWT)
	scheduleSvc := service.NewScheduleService(scheduleRepo, auditRepo, cacheSvc, logr)
	swapSvc := service.NewSwapService(swapRepo, scheduleRepo, userRepo, auditRepo, cacheSvc, metricsSvc, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, scheduleRepo, userRepo, auditRepo, logr)
	exportSvc := service.NewExportService(scheduleSvc, cfg.Exports, logr)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	swapHandler := handler.NewSwapHandler(swapSvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	manageSchedules := middleware.RequireRoles(models.RoleSystemAdmin, models.RoleAssistantManager)
	viewSchedules := middleware.RequireRoles(
		models.RoleSystemAdmin, models.RoleAssistantManager,
		models.RoleAdminSupervisor, models.RoleDepartmentHead, models.RoleTeacher,
	)
	swapActors := middleware.RequireRoles(
		models.RoleSystemAdmin, models.RoleAssistantManager, models.RoleDepartmentHead,
	)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	exportViewers := middleware.RequireRoles(
		models.RoleSystemAdmin, models.RoleAssistantManager, models.RoleAdminSupervisor,
	)

	schedules := api.Group("/schedules")
	{
		schedules.GET("", viewSchedules, scheduleHandler.List)
		schedules.GET("/:id", viewSchedules, scheduleHandler.Get)
		schedules.POST("", manageSchedules, scheduleHandler.Create)
		schedules.PUT("/:id", manageSchedules, scheduleHandler.Update)
		schedules.DELETE("/:id", manageSchedules, scheduleHandler.Delete)

		swaps := schedules.Group("/swap-requests")
		swaps.Use(swapActors)
		{
			swaps.POST("", swapHandler.Create)
			swaps.GET("", swapHandler.List)
			swaps.GET("/:id", swapHandler.Get)
			swaps.PUT("/:id/approve-first", middleware.RequireRoles(models.RoleDepartmentHead), swapHandler.ApproveFirst)
			swaps.PUT("/:id/approve-final", swapHandler.ApproveFinal)
			swaps.PUT("/:id/reject", swapHandler.Reject)
		}
	}

	reports := api.Group("/reports")
	{
		reports.GET("/schedules/export", exportViewers,
			middleware.Audit(auditRepo, models.AuditActionScheduleExport, "schedule_entry"),
			exportHandler.Schedule)
	}

	substitutions := api.Group("/substitutions")
	substitutions.Use(swapActors)
	{
		substitutions.POST("", substitutionHandler.Create)
		substitutions.GET("", substitutionHandler.List)
		substitutions.GET("/:id", substitutionHandler.Get)
		substitutions.PUT("/:id/cancel", substitutionHandler.Cancel)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
