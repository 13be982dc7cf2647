package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
	"github.com/open-sams/sams-api/pkg/response"
)

type scheduleService interface {
	Create(ctx context.Context, req dto.CreateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error)
	Get(ctx context.Context, id string) (*models.ScheduleEntryDetail, error)
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error)
	Delete(ctx context.Context, id, actorID string) error
}

// ScheduleHandler exposes REST endpoints for timetable entries.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func scheduleQueryFrom(c *gin.Context) dto.ScheduleQuery {
	return dto.ScheduleQuery{
		ClassID:      strings.TrimSpace(c.Query("class_id")),
		TeacherID:    strings.TrimSpace(c.Query("teacher_id")),
		DayOfWeek:    strings.TrimSpace(c.Query("day_of_week")),
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
	}
}

// Create godoc
// @Summary Create a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleEntryRequest true "Schedule entry payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule entry payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, detail, nil)
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param class_id query string false "Class filter"
// @Param teacher_id query string false "Teacher filter"
// @Param day_of_week query int false "Day of week (0=Sunday .. 6=Saturday)"
// @Param academic_year query string false "Academic year filter"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), scheduleQueryFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get schedule entry detail
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule entry ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule entry ID"
// @Param payload body dto.UpdateScheduleEntryRequest true "Schedule entry payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule entry payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule entry ID"
// @Success 204 {object} nil
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
