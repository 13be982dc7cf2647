package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func ctxWith(orig, target, head1Dept *string, head1 *string) *models.SwapContext {
	return &models.SwapContext{
		Request:  models.SwapRequest{ApprovingHead1UserID: head1},
		OrigDept: orig, TargetDept: target, Head1Dept: head1Dept,
	}
}

func TestCanCreateSwap(t *testing.T) {
	tests := []struct {
		role    models.UserRole
		allowed bool
	}{
		{models.RoleSystemAdmin, true},
		{models.RoleAssistantManager, true},
		{models.RoleDepartmentHead, true},
		{models.RoleAdminSupervisor, false},
		{models.RoleTeacher, false},
		{models.RoleParent, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			err := CanCreateSwap(Actor{ID: "u1", Role: tt.role})
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				appErr := appErrors.FromError(err)
				assert.Equal(t, appErrors.CodeForbidden, appErr.Code)
			}
		})
	}
}

func TestCanApproveFirst(t *testing.T) {
	sci := strPtr("sci")
	math := strPtr("math")

	t.Run("head of original department allowed", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: sci}
		assert.NoError(t, CanApproveFirst(actor, ctxWith(sci, math, nil, nil)))
	})

	t.Run("head of target department allowed", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: math}
		assert.NoError(t, CanApproveFirst(actor, ctxWith(sci, math, nil, nil)))
	})

	t.Run("management cannot take the first step", func(t *testing.T) {
		actor := Actor{ID: "a1", Role: models.RoleSystemAdmin, DepartmentID: sci}
		err := CanApproveFirst(actor, ctxWith(sci, math, nil, nil))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("head of unrelated department forbidden", func(t *testing.T) {
		actor := Actor{ID: "h3", Role: models.RoleDepartmentHead, DepartmentID: strPtr("arts")}
		err := CanApproveFirst(actor, ctxWith(sci, math, nil, nil))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("head without department forbidden", func(t *testing.T) {
		actor := Actor{ID: "h4", Role: models.RoleDepartmentHead}
		err := CanApproveFirst(actor, ctxWith(sci, math, nil, nil))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("repeat approval by same head reports transition error", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: sci}
		err := CanApproveFirst(actor, ctxWith(sci, math, sci, strPtr("h1")))
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.CodeInvalidTransition, appErr.Code)
		assert.Contains(t, appErr.Message, "already approved")
	})
}

func TestCanApproveFinal(t *testing.T) {
	sci := strPtr("sci")
	math := strPtr("math")

	t.Run("system admin override", func(t *testing.T) {
		actor := Actor{ID: "a1", Role: models.RoleSystemAdmin}
		assert.NoError(t, CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1"))))
	})

	t.Run("assistant manager override", func(t *testing.T) {
		actor := Actor{ID: "m1", Role: models.RoleAssistantManager}
		assert.NoError(t, CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1"))))
	})

	t.Run("head of the other department allowed", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: math}
		assert.NoError(t, CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1"))))
	})

	t.Run("head of the first approver's department forbidden", func(t *testing.T) {
		actor := Actor{ID: "h5", Role: models.RoleDepartmentHead, DepartmentID: sci}
		err := CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1")))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("first approver cannot also finalize", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: math}
		err := CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1")))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("same-department swap has no second head", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: sci}
		err := CanApproveFinal(actor, ctxWith(sci, sci, sci, strPtr("h9")))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("uninvolved head forbidden", func(t *testing.T) {
		actor := Actor{ID: "h3", Role: models.RoleDepartmentHead, DepartmentID: strPtr("arts")}
		err := CanApproveFinal(actor, ctxWith(sci, math, sci, strPtr("h1")))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})
}

func TestCanReject(t *testing.T) {
	sci := strPtr("sci")
	math := strPtr("math")

	t.Run("management allowed", func(t *testing.T) {
		assert.NoError(t, CanReject(Actor{ID: "a1", Role: models.RoleSystemAdmin}, ctxWith(sci, math, nil, nil)))
	})

	t.Run("involved head allowed", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: math}
		assert.NoError(t, CanReject(actor, ctxWith(sci, math, nil, nil)))
	})

	t.Run("uninvolved head forbidden", func(t *testing.T) {
		actor := Actor{ID: "h3", Role: models.RoleDepartmentHead, DepartmentID: strPtr("arts")}
		err := CanReject(actor, ctxWith(sci, math, nil, nil))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})

	t.Run("teacher forbidden", func(t *testing.T) {
		err := CanReject(Actor{ID: "t1", Role: models.RoleTeacher, DepartmentID: sci}, ctxWith(sci, math, nil, nil))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})
}

func TestCanViewSwap(t *testing.T) {
	sci := strPtr("sci")
	math := strPtr("math")

	t.Run("supervisor allowed everywhere", func(t *testing.T) {
		assert.NoError(t, CanViewSwap(Actor{ID: "s1", Role: models.RoleAdminSupervisor}, sci, math, "r1"))
	})

	t.Run("head sees own department", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: sci}
		assert.NoError(t, CanViewSwap(actor, sci, math, "r1"))
	})

	t.Run("head sees own request regardless of department", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: strPtr("arts")}
		assert.NoError(t, CanViewSwap(actor, sci, math, "h1"))
	})

	t.Run("head blocked from unrelated request", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: strPtr("arts")}
		err := CanViewSwap(actor, sci, math, "r1")
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})
}

func TestCanRecordSubstitution(t *testing.T) {
	sci := strPtr("sci")

	t.Run("management allowed", func(t *testing.T) {
		assert.NoError(t, CanRecordSubstitution(Actor{ID: "a1", Role: models.RoleAssistantManager}, nil, sci))
	})

	t.Run("head of teacher's department allowed", func(t *testing.T) {
		actor := Actor{ID: "h1", Role: models.RoleDepartmentHead, DepartmentID: sci}
		assert.NoError(t, CanRecordSubstitution(actor, sci, sci))
	})

	t.Run("head of another department forbidden", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: strPtr("math")}
		err := CanRecordSubstitution(actor, strPtr("math"), sci)
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})
}

func TestCanCancelSubstitution(t *testing.T) {
	sci := strPtr("sci")

	t.Run("recorder may cancel", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: strPtr("math")}
		assert.NoError(t, CanCancelSubstitution(actor, strPtr("math"), sci, "h2"))
	})

	t.Run("unrelated head forbidden", func(t *testing.T) {
		actor := Actor{ID: "h2", Role: models.RoleDepartmentHead, DepartmentID: strPtr("math")}
		err := CanCancelSubstitution(actor, strPtr("math"), sci, "h9")
		assert.Equal(t, appErrors.CodeForbidden, appErrors.FromError(err).Code)
	})
}
