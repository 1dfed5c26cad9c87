package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type calendarService interface {
	Calendar(ctx context.Context, rawStart, rawEnd string) (*dto.CalendarResponse, error)
	Day(ctx context.Context, rawDate string) (*dto.DayView, error)
}

// CalendarHandler serves the derived per-day calendar views.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Calendar godoc
// @Summary Calendar day views for a window
// @Tags Calendar
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Calendar(c *gin.Context) {
	cal, err := h.service.Calendar(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cal)
}

// Day godoc
// @Summary Calendar view of one date
// @Tags Calendar
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /calendar/days/{date} [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	day, err := h.service.Day(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, day)
}
