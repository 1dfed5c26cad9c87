package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/middleware"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type statisticsService interface {
	Get(ctx context.Context, rawStart, rawEnd string) (*dto.StatisticsResponse, bool, error)
}

// StatisticsHandler serves progress statistics.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler constructs a StatisticsHandler.
func NewStatisticsHandler(service statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

// Get godoc
// @Summary Progress statistics for a range
// @Description Without dates the current semester range is used. Holidays are excluded.
// @Tags Statistics
// @Produce json
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *StatisticsHandler) Get(c *gin.Context) {
	stats, cached, err := h.service.Get(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.OK(c, stats, middleware.ExtractMeta(c))
}
