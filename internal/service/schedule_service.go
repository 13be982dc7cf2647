package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	"github.com/open-sams/sams-api/internal/repository"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

type scheduleStore interface {
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	GetDetailByID(ctx context.Context, id string) (*models.ScheduleEntryDetail, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntryDetail, error)
	Update(ctx context.Context, entry *models.ScheduleEntry) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// ScheduleService manages timetable entries and their cached reads.
type ScheduleService struct {
	repo     scheduleStore
	audit    auditLogger
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleStore, audit auditLogger, cache *CacheService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, audit: audit, cache: cache, validate: validator.New(), logger: logger}
}

// Create stores a new schedule entry. Slot conflicts surface as 409 and
// unknown references as validation failures.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all schedule entry fields are required")
	}
	entry := &models.ScheduleEntry{
		ClassID:       req.ClassID,
		SubjectID:     req.SubjectID,
		TeacherUserID: req.TeacherUserID,
		TimeSlotID:    req.TimeSlotID,
		AcademicYear:  req.AcademicYear,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, mapWriteError(err, "create schedule entry")
	}
	s.emitAudit(ctx, actorID, models.AuditActionScheduleEntryWrite, entry.ID)
	s.invalidate(ctx)
	return s.detail(ctx, entry.ID)
}

// Get fetches one entry.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleEntryDetail, error) {
	return s.detail(ctx, id)
}

// List returns entries matching the query, served from cache when enabled.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error) {
	filter, err := scheduleFilterFromQuery(query)
	if err != nil {
		return nil, err
	}

	key := scheduleCacheKey(filter)
	var cached []models.ScheduleEntryDetail
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	if err := s.cache.Set(ctx, key, entries, 0); err != nil {
		s.logger.Warn("failed to cache schedule list", zap.Error(err))
	}
	return entries, nil
}

// Update replaces an entry.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all schedule entry fields are required")
	}
	entry := &models.ScheduleEntry{
		ID:            id,
		ClassID:       req.ClassID,
		SubjectID:     req.SubjectID,
		TeacherUserID: req.TeacherUserID,
		TimeSlotID:    req.TimeSlotID,
		AcademicYear:  req.AcademicYear,
	}
	rows, err := s.repo.Update(ctx, entry)
	if err != nil {
		return nil, mapWriteError(err, "update schedule entry")
	}
	if rows == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	}
	s.emitAudit(ctx, actorID, models.AuditActionScheduleEntryWrite, id)
	s.invalidate(ctx)
	return s.detail(ctx, id)
}

// Delete removes an entry.
func (s *ScheduleService) Delete(ctx context.Context, id, actorID string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "schedule entry is referenced by swap requests or substitutions")
		}
		return appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	}
	s.emitAudit(ctx, actorID, models.AuditActionScheduleEntryDelete, id)
	s.invalidate(ctx)
	return nil
}

func (s *ScheduleService) detail(ctx context.Context, id string) (*models.ScheduleEntryDetail, error) {
	entry, err := s.repo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, scheduleCachePattern); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}

func (s *ScheduleService) emitAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "schedule_entry",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "schedule-service",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func scheduleFilterFromQuery(query dto.ScheduleQuery) (models.ScheduleFilter, error) {
	filter := models.ScheduleFilter{
		ClassID:      strings.TrimSpace(query.ClassID),
		TeacherID:    strings.TrimSpace(query.TeacherID),
		AcademicYear: strings.TrimSpace(query.AcademicYear),
	}
	if raw := strings.TrimSpace(query.DayOfWeek); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 0 || day > 6 {
			return models.ScheduleFilter{}, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be an integer between 0 and 6")
		}
		filter.DayOfWeek = &day
	}
	return filter, nil
}

func scheduleCacheKey(filter models.ScheduleFilter) string {
	day := ""
	if filter.DayOfWeek != nil {
		day = strconv.Itoa(*filter.DayOfWeek)
	}
	return fmt.Sprintf("schedules:%s:%s:%s:%s", filter.ClassID, filter.TeacherID, day, filter.AcademicYear)
}

func mapWriteError(err error, action string) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrConflict, "the class already has an entry in that time slot for the academic year")
	}
	if repository.IsForeignKeyViolation(err) {
		return appErrors.Clone(appErrors.ErrValidation, "one of the referenced records does not exist")
	}
	return appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to "+action)
}
