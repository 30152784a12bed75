package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-mgmt-api/api/swagger"
	"github.com/noah-isme/school-mgmt-api/internal/handler"
	"github.com/noah-isme/school-mgmt-api/internal/middleware"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/repository"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/cache"
	"github.com/noah-isme/school-mgmt-api/pkg/config"
	"github.com/noah-isme/school-mgmt-api/pkg/database"
	"github.com/noah-isme/school-mgmt-api/pkg/logger"
	"github.com/noah-isme/school-mgmt-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/school-mgmt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-mgmt-api/pkg/middleware/requestid"
)

// @title School Management API
// @version 0.1.0
// @description Student records administration service
// @BasePath /
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, reference cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	refSvc := service.NewReferenceService(classRepo, cacheRepo, cfg.Reference.CacheTTL, metricsSvc, logr)
	verificationMailer := mailer.New(cfg.SMTP, logr)
	studentSvc := service.NewStudentService(studentRepo, refSvc, verificationMailer, cfg.Students, nil, logr)

	studentHandler := handler.NewStudentHandler(studentSvc)

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
	api.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	students := api.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/export", staff, studentHandler.Export)
		students.GET("/:id", staff, studentHandler.Get)
		students.POST("", admin, studentHandler.Create)
		students.PUT("/:id", admin, studentHandler.Update)
		students.POST("/:id/status", admin, studentHandler.SetStatus)
		students.DELETE("/:id", admin, studentHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
