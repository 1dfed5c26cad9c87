package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

type classEntryService interface {
	ListRange(ctx context.Context, rawStart, rawEnd string) ([]models.ClassEntryDetail, error)
	ListByDate(ctx context.Context, rawDate string) ([]models.ClassEntryDetail, error)
	Upsert(ctx context.Context, req dto.UpsertClassEntryRequest) (*models.ClassEntry, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (*models.ClassEntryDetail, error)
	UpdateNotes(ctx context.Context, id string, req dto.UpdateNotesRequest) (*models.ClassEntryDetail, error)
	Toggle(ctx context.Context, req dto.SlotRequest) (*models.ClassEntry, error)
	SaveNotes(ctx context.Context, req dto.SlotNotesRequest) (*models.ClassEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteRange(ctx context.Context, rawStart, rawEnd string) (int64, error)
}

type noteBuffer interface {
	Buffer(req dto.SlotNotesRequest) (string, error)
	Flush(ctx context.Context) dto.FlushNotesResponse
	Discard(key string) int
	Status() dto.PendingNotesResponse
}

// ClassEntryHandler exposes dated class entries and the note buffer.
type ClassEntryHandler struct {
	service classEntryService
	notes   noteBuffer
}

// NewClassEntryHandler constructs a ClassEntryHandler.
func NewClassEntryHandler(service classEntryService, notes noteBuffer) *ClassEntryHandler {
	return &ClassEntryHandler{service: service, notes: notes}
}

// List godoc
// @Summary List class entries
// @Description Either date or both start_date and end_date must be given.
// @Tags ClassEntries
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /class-entries [get]
func (h *ClassEntryHandler) List(c *gin.Context) {
	var (
		entries []models.ClassEntryDetail
		err     error
	)
	if date := c.Query("date"); date != "" {
		entries, err = h.service.ListByDate(c.Request.Context(), date)
	} else {
		entries, err = h.service.ListRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClassEntryResponses(entries), map[string]interface{}{"count": len(entries)})
}

// Upsert godoc
// @Summary Create or update the entry of a slot
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param payload body dto.UpsertClassEntryRequest true "Entry"
// @Success 200 {object} response.Envelope
// @Router /class-entries [put]
func (h *ClassEntryHandler) Upsert(c *gin.Context) {
	var req dto.UpsertClassEntryRequest
	if !bindJSON(c, &req, "invalid class entry payload") {
		return
	}
	entry, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entryResponse(entry))
}

// DeleteRange godoc
// @Summary Delete every entry in a date range
// @Tags ClassEntries
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /class-entries [delete]
func (h *ClassEntryHandler) DeleteRange(c *gin.Context) {
	deleted, err := h.service.DeleteRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

// UpdateStatus godoc
// @Summary Set an entry's completion flag
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-entries/{id}/status [patch]
func (h *ClassEntryHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	entry, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClassEntryResponse(*entry))
}

// UpdateNotes godoc
// @Summary Replace an entry's notes
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateNotesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Router /class-entries/{id}/notes [patch]
func (h *ClassEntryHandler) UpdateNotes(c *gin.Context) {
	var req dto.UpdateNotesRequest
	if !bindJSON(c, &req, "invalid notes payload") {
		return
	}
	entry, err := h.service.UpdateNotes(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClassEntryResponse(*entry))
}

// Delete godoc
// @Summary Delete an entry
// @Tags ClassEntries
// @Param id path string true "Entry ID"
// @Success 204
// @Router /class-entries/{id} [delete]
func (h *ClassEntryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Toggle godoc
// @Summary Toggle completion of a slot
// @Description Creates the entry as completed when the slot has none.
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param payload body dto.SlotRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /class-entries/toggle [post]
func (h *ClassEntryHandler) Toggle(c *gin.Context) {
	var req dto.SlotRequest
	if !bindJSON(c, &req, "invalid slot payload") {
		return
	}
	entry, err := h.service.Toggle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entryResponse(entry))
}

// SaveNotes godoc
// @Summary Save notes for a slot immediately
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param payload body dto.SlotNotesRequest true "Slot notes"
// @Success 200 {object} response.Envelope
// @Router /class-entries/notes [put]
func (h *ClassEntryHandler) SaveNotes(c *gin.Context) {
	var req dto.SlotNotesRequest
	if !bindJSON(c, &req, "invalid notes payload") {
		return
	}
	entry, err := h.service.SaveNotes(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entryResponse(entry))
}

// BufferNotes godoc
// @Summary Buffer a note edit
// @Description The edit is saved after the debounce delay; later edits to the same slot replace it.
// @Tags ClassEntries
// @Accept json
// @Produce json
// @Param payload body dto.SlotNotesRequest true "Slot notes"
// @Success 202 {object} response.Envelope
// @Router /class-entries/notes/buffer [put]
func (h *ClassEntryHandler) BufferNotes(c *gin.Context) {
	var req dto.SlotNotesRequest
	if !bindJSON(c, &req, "invalid notes payload") {
		return
	}
	key, err := h.notes.Buffer(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"key": key})
}

// FlushNotes godoc
// @Summary Save every buffered note now
// @Tags ClassEntries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-entries/notes/flush [post]
func (h *ClassEntryHandler) FlushNotes(c *gin.Context) {
	response.OK(c, h.notes.Flush(c.Request.Context()))
}

// PendingNotes godoc
// @Summary List unsaved note edits
// @Tags ClassEntries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-entries/notes/pending [get]
func (h *ClassEntryHandler) PendingNotes(c *gin.Context) {
	response.OK(c, h.notes.Status())
}

// DiscardNotes godoc
// @Summary Drop unsaved note edits
// @Tags ClassEntries
// @Produce json
// @Param key query string false "Slot key; all when omitted"
// @Success 200 {object} response.Envelope
// @Router /class-entries/notes/pending [delete]
func (h *ClassEntryHandler) DiscardNotes(c *gin.Context) {
	response.OK(c, gin.H{"discarded": h.notes.Discard(c.Query("key"))})
}

func entryResponse(entry *models.ClassEntry) dto.ClassEntryResponse {
	return dto.NewClassEntryResponse(models.ClassEntryDetail{ClassEntry: *entry})
}
