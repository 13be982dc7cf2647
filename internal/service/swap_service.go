package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/open-sams/sams-api/internal/authz"
	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

const scheduleCachePattern = "schedules:*"

type swapStore interface {
	Create(ctx context.Context, request *models.SwapRequest) error
	GetDetailByID(ctx context.Context, id string) (*models.SwapRequestDetail, error)
	List(ctx context.Context, filter models.SwapFilter) ([]models.SwapRequestDetail, error)
	WithLockedRequest(ctx context.Context, id string, fn func(tx *sqlx.Tx, sc *models.SwapContext) error) error
	MarkFirstApproval(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time) error
	MarkApproved(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time, stampFirst bool) error
	MarkRejected(ctx context.Context, tx *sqlx.Tx, id, approverID, reason string, at time.Time) error
	SwapTeachers(ctx context.Context, tx *sqlx.Tx, sc *models.SwapContext) error
}

type scheduleReader interface {
	GetDetailByID(ctx context.Context, id string) (*models.ScheduleEntryDetail, error)
}

type departmentResolver interface {
	ResolveDepartment(ctx context.Context, userID string) (*string, error)
}

type auditLogger interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// SwapService drives the swap request lifecycle: pending, approved_by_head1,
// approved or rejected. All status transitions and the teacher exchange run
// under a row lock so concurrent decisions serialize.
type SwapService struct {
	swaps     swapStore
	schedules scheduleReader
	users     departmentResolver
	audit     auditLogger
	cache     *CacheService
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSwapService constructs the service.
func NewSwapService(swaps swapStore, schedules scheduleReader, users departmentResolver, audit auditLogger, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SwapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		swaps:     swaps,
		schedules: schedules,
		users:     users,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger,
	}
}

// actorFor builds the policy view of the caller. The department comes from
// the database rather than the token so headship-only membership counts.
func (s *SwapService) actorFor(ctx context.Context, claims *models.JWTClaims) (authz.Actor, error) {
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

// Create validates the entry pairing and stores a pending request.
func (s *SwapService) Create(ctx context.Context, req dto.CreateSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := authz.CanCreateSwap(actor); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "original_entry_id and target_entry_id are required")
	}
	if req.OriginalEntryID == req.TargetEntryID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a swap needs two distinct schedule entries")
	}

	orig, err := s.loadEntry(ctx, req.OriginalEntryID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadEntry(ctx, req.TargetEntryID)
	if err != nil {
		return nil, err
	}
	if orig.TimeSlotID != target.TimeSlotID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "both entries must share the same time slot")
	}
	if orig.AcademicYear != target.AcademicYear {
		return nil, appErrors.Clone(appErrors.ErrValidation, "both entries must belong to the same academic year")
	}
	if orig.TeacherUserID == target.TeacherUserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "both entries are taught by the same teacher")
	}

	request := &models.SwapRequest{
		RequestingUserID: actor.ID,
		OriginalEntryID:  req.OriginalEntryID,
		TargetEntryID:    req.TargetEntryID,
		Reason:           strings.TrimSpace(req.Reason),
		Status:           models.SwapStatusPending,
	}
	if err := s.swaps.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to create swap request")
	}
	s.emitAudit(ctx, actor.ID, models.AuditActionSwapCreate, request.ID, nil)
	s.metrics.RecordSwapDecision("created")
	return s.detail(ctx, request.ID)
}

// ApproveFirst performs the first approval step. When both teachers share a
// department the single sign-off completes the request and applies the swap.
func (s *SwapService) ApproveFirst(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}

	var outcome models.SwapStatus
	err = s.swaps.WithLockedRequest(ctx, id, func(tx *sqlx.Tx, sc *models.SwapContext) error {
		if err := authz.CanApproveFirst(actor, sc); err != nil {
			return err
		}
		if sc.Request.Status != models.SwapStatusPending {
			return appErrors.InvalidTransition(string(sc.Request.Status))
		}
		now := time.Now().UTC()
		if sc.SameDepartment() {
			if err := s.swaps.MarkApproved(ctx, tx, id, actor.ID, now, true); err != nil {
				return err
			}
			if err := s.swaps.SwapTeachers(ctx, tx, sc); err != nil {
				return err
			}
			outcome = models.SwapStatusApproved
			return nil
		}
		if err := s.swaps.MarkFirstApproval(ctx, tx, id, actor.ID, now); err != nil {
			return err
		}
		outcome = models.SwapStatusApprovedByHead1
		return nil
	})
	if err != nil {
		return nil, s.normalize(err)
	}

	s.emitAudit(ctx, actor.ID, models.AuditActionSwapApproveFirst, id, map[string]string{"status": string(outcome)})
	s.metrics.RecordSwapDecision(string(outcome))
	if outcome == models.SwapStatusApproved {
		s.invalidateSchedules(ctx)
	}
	return s.detail(ctx, id)
}

// ApproveFinal completes a cross-department request. Management may also
// override a still-pending request, approving it in one step.
func (s *SwapService) ApproveFinal(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}

	err = s.swaps.WithLockedRequest(ctx, id, func(tx *sqlx.Tx, sc *models.SwapContext) error {
		if err := authz.CanApproveFinal(actor, sc); err != nil {
			return err
		}
		now := time.Now().UTC()
		switch sc.Request.Status {
		case models.SwapStatusApprovedByHead1:
			if err := s.swaps.MarkApproved(ctx, tx, id, actor.ID, now, false); err != nil {
				return err
			}
		case models.SwapStatusPending:
			if !actor.Role.IsManagement() {
				return appErrors.Clone(appErrors.ErrInvalidTransition, "request has not completed the first approval step")
			}
			if err := s.swaps.MarkApproved(ctx, tx, id, actor.ID, now, true); err != nil {
				return err
			}
		default:
			return appErrors.InvalidTransition(string(sc.Request.Status))
		}
		return s.swaps.SwapTeachers(ctx, tx, sc)
	})
	if err != nil {
		return nil, s.normalize(err)
	}

	s.emitAudit(ctx, actor.ID, models.AuditActionSwapApproveFinal, id, nil)
	s.metrics.RecordSwapDecision(string(models.SwapStatusApproved))
	s.invalidateSchedules(ctx)
	return s.detail(ctx, id)
}

// Reject closes a non-terminal request with a mandatory reason.
func (s *SwapService) Reject(ctx context.Context, id string, req dto.RejectSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection_reason is required")
	}

	err = s.swaps.WithLockedRequest(ctx, id, func(tx *sqlx.Tx, sc *models.SwapContext) error {
		if err := authz.CanReject(actor, sc); err != nil {
			return err
		}
		if sc.Request.Status.Terminal() {
			return appErrors.InvalidTransition(string(sc.Request.Status))
		}
		return s.swaps.MarkRejected(ctx, tx, id, actor.ID, reason, time.Now().UTC())
	})
	if err != nil {
		return nil, s.normalize(err)
	}

	s.emitAudit(ctx, actor.ID, models.AuditActionSwapReject, id, map[string]string{"reason": reason})
	s.metrics.RecordSwapDecision(string(models.SwapStatusRejected))
	return s.detail(ctx, id)
}

// Get returns a request enforcing view scope.
func (s *SwapService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewSwap(actor, detail.OrigTeacherDept, detail.TargetTeacherDept, detail.RequestingUserID); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns requests visible to the caller, newest first. Department heads
// only see requests touching their department or ones they initiated.
func (s *SwapService) List(ctx context.Context, query dto.SwapQuery, claims *models.JWTClaims) ([]models.SwapRequestDetail, error) {
	actor, err := s.actorFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	filter := models.SwapFilter{
		Status:       models.SwapStatus(strings.TrimSpace(query.Status)),
		DepartmentID: strings.TrimSpace(query.DepartmentID),
	}
	switch actor.Role {
	case models.RoleSystemAdmin, models.RoleAssistantManager, models.RoleAdminSupervisor:
		// full visibility
	case models.RoleDepartmentHead:
		filter.VisibleToDept = actor.DepartmentID
		filter.VisibleToUser = actor.ID
	default:
		return nil, appErrors.ErrForbidden
	}
	list, err := s.swaps.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to list swap requests")
	}
	return list, nil
}

func (s *SwapService) loadEntry(ctx context.Context, id string) (*models.ScheduleEntryDetail, error) {
	entry, err := s.schedules.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

func (s *SwapService) detail(ctx context.Context, id string) (*models.SwapRequestDetail, error) {
	detail, err := s.swaps.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	return detail, nil
}

func (s *SwapService) normalize(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.CodeInternal, appErrors.ErrInternal.Status, "failed to process swap request")
}

func (s *SwapService) emitAudit(ctx context.Context, userID, action, resourceID string, values map[string]string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "swap_request",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "swap-service",
	}
	if len(values) > 0 {
		entry.NewValues = encodeAuditValues(values)
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *SwapService) invalidateSchedules(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleCachePattern); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}
