package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type scheduleService interface {
	GetTemplate(ctx context.Context) (models.WeeklyTemplate, error)
	ReplaceTemplate(ctx context.Context, payload dto.WeeklyTemplatePayload) (models.WeeklyTemplate, error)
	Materialize(ctx context.Context, req dto.MaterializeRequest) (*dto.MaterializeResult, error)
}

// ScheduleHandler manages the weekly template and its materialization.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// GetTemplate godoc
// @Summary Get the weekly template
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/template [get]
func (h *ScheduleHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.service.GetTemplate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TemplatePayload(tpl))
}

// ReplaceTemplate godoc
// @Summary Replace the weekly template
// @Description Body maps day name to period ("1".."7") to class type id or null.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.WeeklyTemplatePayload true "Template"
// @Success 200 {object} response.Envelope
// @Router /schedule/template [put]
func (h *ScheduleHandler) ReplaceTemplate(c *gin.Context) {
	var payload dto.WeeklyTemplatePayload
	if !bindJSON(c, &payload, "invalid template payload") {
		return
	}
	tpl, err := h.service.ReplaceTemplate(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TemplatePayload(tpl))
}

// Materialize godoc
// @Summary Regenerate class entries for a date range
// @Description Replaces the range atomically. preserve-existing keeps status and notes of matching slots.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.MaterializeRequest true "Range and policy"
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /schedule/materialize [post]
func (h *ScheduleHandler) Materialize(c *gin.Context) {
	var req dto.MaterializeRequest
	if !bindJSON(c, &req, "invalid materialize payload") {
		return
	}
	result, err := h.service.Materialize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
