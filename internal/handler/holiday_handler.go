package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

const maxHolidayUpload = 1 << 20

type holidayService interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error)
	Add(ctx context.Context, req dto.HolidayRequest) (*models.Holiday, error)
	Remove(ctx context.Context, rawDate string) error
	ReplaceAll(ctx context.Context, req dto.ReplaceHolidaysRequest) ([]models.Holiday, error)
	Import(ctx context.Context, format string, r io.Reader) (*dto.HolidayImportResult, error)
}

// HolidayHandler manages the holiday calendar.
type HolidayHandler struct {
	service holidayService
}

// NewHolidayHandler constructs a HolidayHandler.
func NewHolidayHandler(service holidayService) *HolidayHandler {
	return &HolidayHandler{service: service}
}

// List godoc
// @Summary List holidays grouped by month
// @Tags Holidays
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month (requires year)"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		return
	}
	holidays, err := h.service.List(c.Request.Context(), models.HolidayFilter{Year: year, Month: month})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.GroupHolidays(holidays), map[string]interface{}{"count": len(holidays)})
}

// Add godoc
// @Summary Add or rename a holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body dto.HolidayRequest true "Holiday"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Add(c *gin.Context) {
	var req dto.HolidayRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	holiday, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holidayResponse(*holiday))
}

// Replace godoc
// @Summary Replace the whole holiday set
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceHolidaysRequest true "Holidays"
// @Success 200 {object} response.Envelope
// @Router /holidays [put]
func (h *HolidayHandler) Replace(c *gin.Context) {
	var req dto.ReplaceHolidaysRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	holidays, err := h.service.ReplaceAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.GroupHolidays(holidays), map[string]interface{}{"count": len(holidays)})
}

// Remove godoc
// @Summary Remove the holiday on a date
// @Tags Holidays
// @Param date path string true "YYYY-MM-DD"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /holidays/{date} [delete]
func (h *HolidayHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import holidays from YAML or iCalendar
// @Description Accepts a multipart "file" field or a raw body. The format comes from the format query or the file extension.
// @Tags Holidays
// @Accept mpfd
// @Produce json
// @Param format query string false "yaml or ics"
// @Param file formData file false "Holiday file"
// @Success 200 {object} response.Envelope
// @Router /holidays/import [post]
func (h *HolidayHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxHolidayUpload)

	format := c.Query("format")
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file field is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Internal(err, "failed to read upload"))
			return
		}
		defer file.Close()
		body = file
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
		}
	}
	if format == "" {
		format = formatFromContentType(c.ContentType())
	}

	result, err := h.service.Import(c.Request.Context(), format, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func formatFromContentType(contentType string) string {
	switch contentType {
	case "text/calendar":
		return "ics"
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	}
	return ""
}

func holidayResponse(h models.Holiday) dto.HolidayResponse {
	return dto.HolidayResponse{ID: h.ID, Date: calendar.Key(h.Date), Name: h.Name}
}
