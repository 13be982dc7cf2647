// Package authz centralises the swap/substitution permission policy as pure
// functions over role and department context. Handlers and services supply
// all inputs; the resolver performs no I/O.
package authz

import (
	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

// Actor is the authenticated principal a check runs for.
type Actor struct {
	ID           string
	Role         models.UserRole
	DepartmentID *string
}

// FromClaims builds an Actor from validated token claims.
func FromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role, DepartmentID: claims.DepartmentID}
}

func sameDept(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func memberOfEither(actor Actor, sc *models.SwapContext) bool {
	return sameDept(actor.DepartmentID, sc.OrigDept) || sameDept(actor.DepartmentID, sc.TargetDept)
}

// CanCreateSwap permits system admins, assistant managers, and any department
// head to open a swap request. Department membership is only enforced at
// approval time.
func CanCreateSwap(actor Actor) error {
	switch actor.Role {
	case models.RoleSystemAdmin, models.RoleAssistantManager, models.RoleDepartmentHead:
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to request schedule swaps")
}

// CanApproveFirst guards the first approval step. Rules evaluate in order:
// exact department_head role, membership in one of the involved departments,
// then the self-approval idempotency guard.
func CanApproveFirst(actor Actor, sc *models.SwapContext) error {
	if actor.Role != models.RoleDepartmentHead {
		return appErrors.Clone(appErrors.ErrForbidden, "only department heads can perform the first approval step")
	}
	if !memberOfEither(actor, sc) {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not the head of either department involved")
	}
	if sc.Request.ApprovingHead1UserID != nil && *sc.Request.ApprovingHead1UserID == actor.ID {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "you have already approved this step")
	}
	return nil
}

// CanApproveFinal guards the terminal approval. System admins and assistant
// managers hold override authority; otherwise the actor must head the
// involved department whose head has not yet signed off, and must not be the
// first approver.
func CanApproveFinal(actor Actor, sc *models.SwapContext) error {
	if actor.Role.IsManagement() {
		return nil
	}
	if actor.Role == models.RoleDepartmentHead &&
		!sameDept(sc.OrigDept, sc.TargetDept) &&
		memberOfEither(actor, sc) &&
		!sameDept(actor.DepartmentID, sc.Head1Dept) &&
		(sc.Request.ApprovingHead1UserID == nil || *sc.Request.ApprovingHead1UserID != actor.ID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission for final approval")
}

// CanReject permits management or a head of either involved department.
func CanReject(actor Actor, sc *models.SwapContext) error {
	if actor.Role.IsManagement() {
		return nil
	}
	if actor.Role == models.RoleDepartmentHead && memberOfEither(actor, sc) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to reject this request")
}

// CanViewSwap scopes detail reads: department heads only see requests that
// touch their department or that they initiated themselves.
func CanViewSwap(actor Actor, origDept, targetDept *string, requesterID string) error {
	switch actor.Role {
	case models.RoleSystemAdmin, models.RoleAssistantManager, models.RoleAdminSupervisor:
		return nil
	case models.RoleDepartmentHead:
		if sameDept(actor.DepartmentID, origDept) || sameDept(actor.DepartmentID, targetDept) || requesterID == actor.ID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "you can only view requests involving your department or initiated by you")
	}
	return appErrors.ErrForbidden
}

// CanRecordSubstitution permits management for any entry, and a department
// head only when the original teacher belongs to their resolved department.
func CanRecordSubstitution(actor Actor, headDept, originalTeacherDept *string) error {
	if actor.Role.IsManagement() {
		return nil
	}
	if actor.Role == models.RoleDepartmentHead && sameDept(headDept, originalTeacherDept) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to record this substitution")
}

// CanCancelSubstitution permits management, the recorder, or the head of the
// original teacher's department.
func CanCancelSubstitution(actor Actor, headDept, originalTeacherDept *string, recordedBy string) error {
	if actor.Role.IsManagement() {
		return nil
	}
	if actor.Role == models.RoleDepartmentHead && (recordedBy == actor.ID || sameDept(headDept, originalTeacherDept)) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to cancel this substitution")
}
