package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	"github.com/open-sams/sams-api/pkg/config"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
	"github.com/open-sams/sams-api/pkg/export"
)

var scheduleExportHeaders = []string{"Day", "Period", "Start", "End", "Class", "Subject", "Teacher", "Academic Year"}

var dayNames = map[int]string{
	0: "Sunday", 1: "Monday", 2: "Tuesday", 3: "Wednesday",
	4: "Thursday", 5: "Friday", 6: "Saturday",
}

// ExportFormat identifies a supported export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes with their content type and filename.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders timetable listings to downloadable documents.
type ExportService struct {
	schedules *ScheduleService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cfg       config.ExportsConfig
	logger    *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(schedules *ScheduleService, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		cfg:       cfg,
		logger:    logger,
	}
}

// RenderSchedule produces a schedule export in the requested format.
func (s *ExportService) RenderSchedule(ctx context.Context, query dto.ScheduleQuery, format ExportFormat) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	entries, err := s.schedules.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxRows > 0 && len(entries) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("export exceeds the %d row limit, narrow the filters", s.cfg.MaxRows))
	}

	dataset := scheduleDataset(entries)
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "schedule.csv"}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Class Schedule")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "schedule.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func scheduleDataset(entries []models.ScheduleEntryDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		day := dayNames[entry.DayOfWeek]
		if day == "" {
			day = strconv.Itoa(entry.DayOfWeek)
		}
		rows = append(rows, map[string]string{
			"Day":           day,
			"Period":        strconv.Itoa(entry.PeriodNumber),
			"Start":         entry.StartTime,
			"End":           entry.EndTime,
			"Class":         entry.ClassName,
			"Subject":       entry.SubjectName,
			"Teacher":       entry.TeacherName,
			"Academic Year": entry.AcademicYear,
		})
	}
	return export.Dataset{Headers: scheduleExportHeaders, Rows: rows}
}

// ParseExportFormat normalises the query value.
func ParseExportFormat(raw string) ExportFormat {
	return ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
}
