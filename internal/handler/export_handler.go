package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/service"
	"github.com/open-sams/sams-api/pkg/response"
)

type exportService interface {
	RenderSchedule(ctx context.Context, query dto.ScheduleQuery, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler serves downloadable schedule documents.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Schedule godoc
// @Summary Export the schedule as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Param class_id query string false "Class filter"
// @Param teacher_id query string false "Teacher filter"
// @Param day_of_week query int false "Day of week (0=Sunday .. 6=Saturday)"
// @Param academic_year query string false "Academic year filter"
// @Success 200 {file} binary
// @Router /reports/schedules/export [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	format := service.ParseExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.RenderSchedule(c.Request.Context(), scheduleQueryFrom(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
