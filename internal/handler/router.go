package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/middleware"
	"github.com/noah-isme/class-schedule-api/internal/service"
	"github.com/noah-isme/class-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-schedule-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Health        *HealthHandler
	Metrics       *MetricsHandler
	Auth          *AuthHandler
	ClassTypes    *ClassTypeHandler
	SemesterRange *SemesterRangeHandler
	Schedule      *ScheduleHandler
	Calendar      *CalendarHandler
	ClassEntries  *ClassEntryHandler
	Holidays      *HolidayHandler
	Statistics    *StatisticsHandler
	Exports       *ExportHandler
}

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	APIPrefix      string
	EnableDocs     bool
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	// WriteGuard protects mutating routes; nil leaves them open.
	WriteGuard gin.HandlerFunc
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	guard := cfg.WriteGuard
	if guard == nil {
		guard = func(c *gin.Context) { c.Next() }
	}

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics, "/metrics", "/metrics/summary"))
	r.Use(middleware.WithResponseMeta())

	if h.Health != nil {
		r.GET("/health", h.Health.Health)
		r.GET("/ready", h.Health.Ready)
	}
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
		r.GET("/metrics/summary", h.Metrics.Summary)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	write := api.Group("", guard)

	if h.Auth != nil {
		api.POST("/auth/token", h.Auth.Token)
	}
	if h.ClassTypes != nil {
		api.GET("/class-types", h.ClassTypes.List)
		write.POST("/class-types", h.ClassTypes.Create)
		write.PUT("/class-types/:id", h.ClassTypes.Update)
		write.DELETE("/class-types/:id", h.ClassTypes.Delete)
	}
	if h.SemesterRange != nil {
		api.GET("/semester-ranges", h.SemesterRange.List)
		api.GET("/semester-ranges/current", h.SemesterRange.Current)
		write.PUT("/semester-ranges/current", h.SemesterRange.UpdateCurrent)
	}
	if h.Schedule != nil {
		api.GET("/schedule/template", h.Schedule.GetTemplate)
		write.PUT("/schedule/template", h.Schedule.ReplaceTemplate)
		write.POST("/schedule/materialize", h.Schedule.Materialize)
	}
	if h.Calendar != nil {
		api.GET("/calendar", h.Calendar.Calendar)
		api.GET("/calendar/days/:date", h.Calendar.Day)
	}
	if h.ClassEntries != nil {
		entries := h.ClassEntries
		api.GET("/class-entries", entries.List)
		write.PUT("/class-entries", entries.Upsert)
		write.DELETE("/class-entries", entries.DeleteRange)
		write.POST("/class-entries/toggle", entries.Toggle)
		write.PUT("/class-entries/notes", entries.SaveNotes)
		write.PUT("/class-entries/notes/buffer", entries.BufferNotes)
		write.POST("/class-entries/notes/flush", entries.FlushNotes)
		api.GET("/class-entries/notes/pending", entries.PendingNotes)
		write.DELETE("/class-entries/notes/pending", entries.DiscardNotes)
		write.PATCH("/class-entries/:id/status", entries.UpdateStatus)
		write.PATCH("/class-entries/:id/notes", entries.UpdateNotes)
		write.DELETE("/class-entries/:id", entries.Delete)
	}
	if h.Holidays != nil {
		api.GET("/holidays", h.Holidays.List)
		write.POST("/holidays", h.Holidays.Add)
		write.PUT("/holidays", h.Holidays.Replace)
		write.POST("/holidays/import", h.Holidays.Import)
		write.DELETE("/holidays/:date", h.Holidays.Remove)
	}
	if h.Statistics != nil {
		api.GET("/statistics", h.Statistics.Get)
	}
	if h.Exports != nil {
		api.GET("/exports/statistics", h.Exports.Statistics)
		api.GET("/exports/entries.csv", h.Exports.Entries)
		api.GET("/exports/calendar.ics", h.Exports.Calendar)
	}

	return r
}
