package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/handler"
	"github.com/noah-isme/seasonal-upkeep-api/internal/middleware"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/service"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/config"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/seasonal-upkeep-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/seasonal-upkeep-api/pkg/middleware/requestid"
)

type routeDeps struct {
	tokens      middleware.TokenValidator
	metrics     *service.MetricsService
	templates   *handler.TemplateHandler
	records     *handler.RecordHandler
	items       *handler.ItemHandler
	maintenance *handler.MaintenanceHandler
	health      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	readers := middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician, models.RoleViewer)
	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician)
	admins := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.tokens))

	templates := api.Group("/templates")
	templates.GET("", readers, deps.templates.List)
	templates.POST("/validate", readers, deps.templates.Validate)
	templates.GET("/:id", readers, deps.templates.Get)
	templates.GET("/:id/next-due", readers, deps.templates.NextDue)
	templates.POST("", admins, deps.templates.Create)
	templates.PUT("/:id", admins, deps.templates.Update)
	templates.DELETE("/:id", admins, deps.templates.Delete)
	templates.POST("/:id/apply", writers, deps.templates.Apply)

	records := api.Group("/records")
	records.GET("", readers, deps.records.List)
	records.GET("/:id", readers, deps.records.Get)
	records.POST("", writers, deps.records.Create)
	records.PUT("/:id", writers, deps.records.Update)
	records.DELETE("/:id", writers, deps.records.Delete)

	items := api.Group("/items")
	items.GET("", readers, deps.items.List)
	items.GET("/:id", readers, deps.items.Get)
	items.GET("/:id/records", readers, deps.records.ListByItem)
	items.POST("/:id/apply-defaults", writers, deps.items.ApplyDefaults)

	maintenance := api.Group("/maintenance")
	maintenance.GET("/view", readers, deps.maintenance.View)
	maintenance.GET("/export", readers, deps.maintenance.Export)

	api.GET("/metrics/summary", admins, deps.health.Snapshot)

	return r
}
