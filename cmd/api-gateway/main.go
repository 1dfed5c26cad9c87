package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-schedule-api/api/swagger"
	"github.com/noah-isme/class-schedule-api/internal/handler"
	"github.com/noah-isme/class-schedule-api/internal/middleware"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/internal/repository"
	"github.com/noah-isme/class-schedule-api/internal/service"
	"github.com/noah-isme/class-schedule-api/migrations"
	"github.com/noah-isme/class-schedule-api/pkg/cache"
	"github.com/noah-isme/class-schedule-api/pkg/config"
	"github.com/noah-isme/class-schedule-api/pkg/database"
	"github.com/noah-isme/class-schedule-api/pkg/export"
	"github.com/noah-isme/class-schedule-api/pkg/logger"
	"github.com/noah-isme/class-schedule-api/pkg/storage"
)

// @title Class Schedule API
// @version 1.0.0
// @description Weekly class template, dated class entries, holidays and progress statistics.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, migrations.FS, "up"); err != nil {
			return err
		}
		logr.Info("migrations applied")
	}

	redisClient := connectRedis(cfg, logr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	classTypeRepo := repository.NewClassTypeRepository(db)
	rangeRepo := repository.NewSemesterRangeRepository(db)
	templateRepo := repository.NewWeeklyTemplateRepository(db)
	entryRepo := repository.NewClassEntryRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "class-schedule")

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Enabled:           cfg.Auth.Enabled,
		PassphraseHash:    cfg.Auth.PassphraseHash,
		AccessTokenSecret: cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.Expiration,
		Issuer:            cfg.Auth.Issuer,
	})
	classTypeSvc := service.NewClassTypeService(classTypeRepo, cacheSvc, validate, logr)
	rangeSvc := service.NewSemesterRangeService(rangeRepo, cacheSvc, validate, logr, cfg.Schedule.MaxRangeDays)
	scheduleSvc := service.NewScheduleService(templateRepo, entryRepo, classTypeRepo, rangeRepo, cacheSvc, metrics, validate, logr, service.ScheduleConfig{
		Policy:       models.MaterializePolicy(cfg.Schedule.MaterializePolicy),
		MaxRangeDays: cfg.Schedule.MaxRangeDays,
	})
	entrySvc := service.NewClassEntryService(entryRepo, rangeRepo, classTypeRepo, cacheSvc, validate, logr, cfg.Schedule.MaxRangeDays)
	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, validate, logr)
	calendarSvc := service.NewCalendarService(entryRepo, holidayRepo, logr)
	statsSvc := service.NewStatisticsService(entryRepo, holidayRepo, classTypeRepo, rangeRepo, cacheSvc, metrics, logr, service.StatisticsConfig{
		Location: loc,
		CacheTTL: cfg.Stats.CacheTTL,
	})

	pdf := export.NewPDFExporter()
	if cfg.Export.PDFFontFile != "" {
		pdf.FontDir = cfg.Export.PDFFontDir
		pdf.FontFile = cfg.Export.PDFFontFile
		pdf.FontFamily = "ScheduleFont"
	}
	exportSvc := service.NewExportService(statsSvc, entryRepo, holidayRepo, rangeRepo, logr,
		export.NewCSVExporter(), pdf, export.NewICSExporter("Class Schedule"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notes := service.NewNoteBuffer(entrySvc, cfg.Schedule.NotesDebounce, validate, metrics, logr)
	notes.Start(context.Background())

	refresher, err := service.NewStatsRefresher(cfg.Stats.RefreshCron, loc, cacheSvc, statsSvc, logr)
	if err != nil {
		return err
	}
	if cfg.Export.SnapshotDir != "" {
		snapshots, err := storage.NewLocalStorage(cfg.Export.SnapshotDir)
		if err != nil {
			return err
		}
		refresher.WithSnapshots(exportSvc, snapshots, cfg.Export.SnapshotRetention)
	}
	refresher.Start()

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Metrics:        metrics,
		WriteGuard:     middleware.RequireWrite(authSvc),
	}, handler.Handlers{
		Health:        handler.NewHealthHandler(checks, logr),
		Metrics:       handler.NewMetricsHandler(metrics),
		Auth:          handler.NewAuthHandler(authSvc),
		ClassTypes:    handler.NewClassTypeHandler(classTypeSvc),
		SemesterRange: handler.NewSemesterRangeHandler(rangeSvc),
		Schedule:      handler.NewScheduleHandler(scheduleSvc),
		Calendar:      handler.NewCalendarHandler(calendarSvc),
		ClassEntries:  handler.NewClassEntryHandler(entrySvc, notes),
		Holidays:      handler.NewHolidayHandler(holidaySvc),
		Statistics:    handler.NewStatisticsHandler(statsSvc),
		Exports:       handler.NewExportHandler(exportSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("auth", authSvc.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	refresher.Stop()
	flushed := notes.Close(shutdownCtx)
	if len(flushed.Failures) > 0 {
		logr.Warn("unsaved notes dropped on shutdown", zap.Int("failed", len(flushed.Failures)))
	}
	return nil
}

// connectRedis returns nil when the cache is disabled or unreachable; the
// service then computes statistics on every request.
func connectRedis(cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled || !cfg.Stats.CacheEnabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		return nil
	}
	return client
}
