package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/open-sams/sams-api/internal/authz"
	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	"github.com/open-sams/sams-api/internal/repository"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

type substitutionStore interface {
	HasActiveOnDate(ctx context.Context, entryID, date string) (bool, error)
	Create(ctx context.Context, sub *models.Substitution) error
	GetDetailByID(ctx context.Context, id string) (*models.SubstitutionDetail, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionDetail, error)
	Cancel(ctx context.Context, id string) (int64, error)
}

// SubstitutionService records and cancels one-day teacher replacements.
// The permanent timetable is never touched.
type SubstitutionService struct {
	subs      substitutionStore
	schedules scheduleReader
	users     departmentResolver
	audit     auditLogger
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSubstitutionService constructs the service.
func NewSubstitutionService(subs substitutionStore, schedules scheduleReader, users departmentResolver, audit auditLogger, logger *zap.Logger) *SubstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{
		subs:      subs,
		schedules: schedules,
		users:     users,
		audit:     audit,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *SubstitutionService) actorFor(ctx context.Context, claims *models.JWTClaims) (authz.Actor, error) {
	if claims == nil {
		return authz.Actor{}, appErrors.ErrUnauthorized
	}
	actor := authz.FromClaims(claims)
	dept, err := s.users.ResolveDepartment(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authz.Actor{}, appErrors.Clone(appErrors.ErrUnauthorized, "unknown user")
		}
		return authz.Actor{}, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to resolve department")
	}
	actor.DepartmentID = dept
	return actor, nil
}

// Create records an active substitution for one entry and date. The original
// teacher is captured from the entry at recording time.
func (s *SubstitutionService) Create(ctx context.Context, req dto.CreateSubstitutionRequest, claims *models.JWTClaims) (*models.SubstitutionDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry, substitute and a YYYY-MM-DD date are required")
	}

	entry, err := s.schedules.GetDetailByID(ctx, req.OriginalScheduleEntryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if req.SubstituteTeacherUserID == entry.TeacherUserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substitute must differ from the scheduled teacher")
	}
	if err := authz.CanRecordSubstitution(actor, actor.DepartmentID, entry.TeacherDept); err != nil {
		return nil, err
	}

	exists, err := s.subs.HasActiveOnDate(ctx, req.OriginalScheduleEntryID, req.SubstitutionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to check existing substitutions")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active substitution already exists for that entry and date")
	}

	sub := &models.Substitution{
		OriginalScheduleEntryID: req.OriginalScheduleEntryID,
		OriginalTeacherUserID:   entry.TeacherUserID,
		SubstituteTeacherUserID: req.SubstituteTeacherUserID,
		SubstitutionDate:        req.SubstitutionDate,
		Reason:                  strings.TrimSpace(req.Reason),
		RecordedByUserID:        actor.ID,
		Status:                  models.SubstitutionActive,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active substitution already exists for that entry and date")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "one of the referenced records does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to create substitution")
	}
	s.emitAudit(ctx, actor.ID, models.AuditActionSubstitutionCreate, sub.ID)
	return s.detail(ctx, sub.ID)
}

// Get fetches one substitution.
func (s *SubstitutionService) Get(ctx context.Context, id string) (*models.SubstitutionDetail, error) {
	return s.detail(ctx, id)
}

// List returns substitutions matching the query. Department heads are scoped
// to their own department's teachers.
func (s *SubstitutionService) List(ctx context.Context, query dto.SubstitutionQuery, claims *models.JWTClaims) ([]models.SubstitutionDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	filter := models.SubstitutionFilter{
		Date:         strings.TrimSpace(query.Date),
		TeacherID:    strings.TrimSpace(query.TeacherID),
		SubstituteID: strings.TrimSpace(query.SubstituteID),
		DepartmentID: strings.TrimSpace(query.DepartmentID),
	}
	if actor.Role == models.RoleDepartmentHead {
		if actor.DepartmentID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to a department")
		}
		filter.DepartmentID = *actor.DepartmentID
	}
	list, err := s.subs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to list substitutions")
	}
	return list, nil
}

// Cancel marks an active substitution cancelled.
func (s *SubstitutionService) Cancel(ctx context.Context, id string, claims *models.JWTClaims) (*models.SubstitutionDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	sub, err := s.detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanCancelSubstitution(actor, actor.DepartmentID, sub.OriginalTeacherDept, sub.RecordedByUserID); err != nil {
		return nil, err
	}
	if sub.Status != models.SubstitutionActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "substitution is already cancelled")
	}
	rows, err := s.subs.Cancel(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to cancel substitution")
	}
	if rows == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "substitution is already cancelled")
	}
	s.emitAudit(ctx, actor.ID, models.AuditActionSubstitutionCancel, id)
	return s.detail(ctx, id)
}

func (s *SubstitutionService) detail(ctx context.Context, id string) (*models.SubstitutionDetail, error) {
	sub, err := s.subs.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to load substitution")
	}
	return sub, nil
}

func (s *SubstitutionService) emitAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "substitution",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "substitution-service",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
