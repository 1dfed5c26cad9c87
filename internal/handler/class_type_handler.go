package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type classTypeService interface {
	List(ctx context.Context) ([]models.ClassType, error)
	Create(ctx context.Context, req dto.ClassTypeRequest) (*models.ClassType, error)
	Update(ctx context.Context, id int64, req dto.ClassTypeRequest) (*models.ClassType, error)
	Delete(ctx context.Context, id int64) error
}

// ClassTypeHandler manages the classes that can occupy a period.
type ClassTypeHandler struct {
	service classTypeService
}

// NewClassTypeHandler constructs a ClassTypeHandler.
func NewClassTypeHandler(service classTypeService) *ClassTypeHandler {
	return &ClassTypeHandler{service: service}
}

// List godoc
// @Summary List class types
// @Tags ClassTypes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-types [get]
func (h *ClassTypeHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Create class type
// @Tags ClassTypes
// @Accept json
// @Produce json
// @Param payload body dto.ClassTypeRequest true "Class type"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-types [post]
func (h *ClassTypeHandler) Create(c *gin.Context) {
	var req dto.ClassTypeRequest
	if !bindJSON(c, &req, "invalid class type payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update class type
// @Tags ClassTypes
// @Accept json
// @Produce json
// @Param id path int true "Class type ID"
// @Param payload body dto.ClassTypeRequest true "Class type"
// @Success 200 {object} response.Envelope
// @Router /class-types/{id} [put]
func (h *ClassTypeHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.ClassTypeRequest
	if !bindJSON(c, &req, "invalid class type payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete class type
// @Description Existing entries keep their dates with the class reference cleared.
// @Tags ClassTypes
// @Param id path int true "Class type ID"
// @Success 204
// @Router /class-types/{id} [delete]
func (h *ClassTypeHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
