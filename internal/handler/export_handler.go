package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/service"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type exportService interface {
	Statistics(ctx context.Context, rawStart, rawEnd, format string) (*service.ExportFile, error)
	EntriesCSV(ctx context.Context, rawStart, rawEnd string) (*service.ExportFile, error)
	CalendarICS(ctx context.Context, rawStart, rawEnd string) (*service.ExportFile, error)
}

// ExportHandler streams file downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Statistics godoc
// @Summary Download statistics
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default), pdf or xlsx"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /exports/statistics [get]
func (h *ExportHandler) Statistics(c *gin.Context) {
	file, err := h.service.Statistics(c.Request.Context(), c.Query("start_date"), c.Query("end_date"), c.Query("format"))
	h.send(c, file, err)
}

// Entries godoc
// @Summary Download class entries as CSV
// @Tags Exports
// @Produce text/csv
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /exports/entries.csv [get]
func (h *ExportHandler) Entries(c *gin.Context) {
	file, err := h.service.EntriesCSV(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	h.send(c, file, err)
}

// Calendar godoc
// @Summary Download holidays and class entries as iCalendar
// @Tags Exports
// @Produce text/calendar
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /exports/calendar.ics [get]
func (h *ExportHandler) Calendar(c *gin.Context) {
	file, err := h.service.CalendarICS(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	h.send(c, file, err)
}

func (h *ExportHandler) send(c *gin.Context, file *service.ExportFile, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, file.Filename, file.ContentType, file.Data)
}
