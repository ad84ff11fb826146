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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/seasonal-upkeep-api/api/swagger"
	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/handler"
	"github.com/noah-isme/seasonal-upkeep-api/internal/repository"
	"github.com/noah-isme/seasonal-upkeep-api/internal/service"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/cache"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/config"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/database"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/export"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/jobs"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/logger"
)

// @title Seasonal Upkeep API
// @version 1.0.0
// @description Maintenance scheduling for seasonal decoration inventory.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(bootCtx, db); err != nil {
		cancelBoot()
		logr.Fatal("failed to prepare schema", zap.Error(err))
	}
	cancelBoot()

	var redisClient *redis.Client
	if cfg.ItemCache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, item cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.ItemCache.TTL, logr, cfg.ItemCache.Enabled && redisClient != nil)

	itemRepo := repository.NewItemRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	itemSvc := service.NewItemService(itemRepo, cacheSvc, logr)
	recordSvc := service.NewRecordService(recordRepo, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, recordRepo, itemRepo, itemSvc, db, service.NewTemplateValidator(validate), logr)
	applicationSvc := service.NewTemplateApplicationService(templateSvc, itemSvc, recordRepo, metrics, validate, logr, service.ApplicationOptions{
		OccurrencesPerItem: cfg.Scheduling.OccurrencesPerItem,
		Workers:            cfg.Scheduling.ApplyWorkers,
	})
	viewSvc := service.NewViewService(recordSvc, itemSvc, templateSvc, metrics, logr, service.ViewOptions{
		DefaultReminderDays: cfg.Scheduling.DefaultReminderDays,
		UpcomingWindowDays:  cfg.Scheduling.UpcomingWindowDays,
	})
	exportSvc := service.NewExportService(viewSvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.Enabled, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	queue := jobs.NewQueue("apply-defaults", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.Retries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
		OnComplete: func(job jobs.Job, err error) { metrics.RecordJob(job.Type, err) },
	})
	queue.Register(handler.JobApplyDefaults, applyDefaultsJob(applicationSvc, logr))

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	queue.Start(rootCtx)
	defer queue.Stop()

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routeDeps{
		tokens:      tokenSvc,
		metrics:     metrics,
		templates:   handler.NewTemplateHandler(templateSvc, applicationSvc),
		records:     handler.NewRecordHandler(recordSvc),
		items:       handler.NewItemHandler(itemSvc, queue),
		maintenance: handler.NewMaintenanceHandler(viewSvc, exportSvc),
		health:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type defaultsApplier interface {
	ApplyDefaults(ctx context.Context, itemID, actor string) (*dto.ApplyDefaultsResult, error)
}

func applyDefaultsJob(applier defaultsApplier, logr *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(handler.ApplyDefaultsPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T", job.Payload)
		}
		result, err := applier.ApplyDefaults(ctx, payload.ItemID, payload.Actor)
		if err != nil {
			return err
		}
		logr.Info("default templates applied",
			zap.String("job_id", job.ID),
			zap.String("item_id", payload.ItemID),
			zap.Int("templates", len(result.Templates)),
		)
		return nil
	}
}
