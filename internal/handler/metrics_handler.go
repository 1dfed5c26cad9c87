package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type metricsSource interface {
	Handler() http.Handler
	Snapshot() models.SystemMetrics
}

// MetricsHandler exposes the Prometheus scrape endpoint and a JSON summary.
type MetricsHandler struct {
	metrics metricsSource
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics metricsSource) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus serves the text exposition format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary In-process metrics snapshot
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope{data=models.SystemMetrics}
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
