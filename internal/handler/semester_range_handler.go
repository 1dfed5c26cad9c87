package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type semesterRangeService interface {
	List(ctx context.Context) ([]models.SemesterRange, error)
	Current(ctx context.Context) (*models.SemesterRange, error)
	UpdateCurrent(ctx context.Context, req dto.SemesterRangeRequest) (*models.SemesterRange, error)
}

// SemesterRangeHandler exposes the active semester window.
type SemesterRangeHandler struct {
	service semesterRangeService
}

// NewSemesterRangeHandler constructs a SemesterRangeHandler.
func NewSemesterRangeHandler(service semesterRangeService) *SemesterRangeHandler {
	return &SemesterRangeHandler{service: service}
}

// List godoc
// @Summary List semester ranges
// @Tags SemesterRanges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semester-ranges [get]
func (h *SemesterRangeHandler) List(c *gin.Context) {
	ranges, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.SemesterRangeResponse, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, dto.NewSemesterRangeResponse(r))
	}
	response.OK(c, out)
}

// Current godoc
// @Summary Get the current semester range
// @Tags SemesterRanges
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semester-ranges/current [get]
func (h *SemesterRangeHandler) Current(c *gin.Context) {
	current, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSemesterRangeResponse(*current))
}

// UpdateCurrent godoc
// @Summary Replace the current semester range
// @Tags SemesterRanges
// @Accept json
// @Produce json
// @Param payload body dto.SemesterRangeRequest true "Range"
// @Success 200 {object} response.Envelope
// @Router /semester-ranges/current [put]
func (h *SemesterRangeHandler) UpdateCurrent(c *gin.Context) {
	var req dto.SemesterRangeRequest
	if !bindJSON(c, &req, "invalid semester range payload") {
		return
	}
	current, err := h.service.UpdateCurrent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSemesterRangeResponse(*current))
}
