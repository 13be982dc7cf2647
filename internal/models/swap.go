package models

import "time"

// SwapStatus enumerates the swap-request lifecycle.
type SwapStatus string

const (
	SwapStatusPending         SwapStatus = "pending"
	SwapStatusApprovedByHead1 SwapStatus = "approved_by_head1"
	SwapStatusApproved        SwapStatus = "approved"
	SwapStatusRejected        SwapStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusApproved || s == SwapStatusRejected
}

// SwapRequest asks to exchange the teacher assignments of two schedule
// entries sharing the same time slot and academic year.
type SwapRequest struct {
	ID                   string     `db:"id" json:"id"`
	RequestingUserID     string     `db:"requesting_user_id" json:"requesting_user_id"`
	OriginalEntryID      string     `db:"original_entry_id" json:"original_entry_id"`
	TargetEntryID        string     `db:"target_entry_id" json:"target_entry_id"`
	Reason               string     `db:"reason" json:"reason"`
	Status               SwapStatus `db:"status" json:"status"`
	ApprovingHead1UserID *string    `db:"approving_head1_user_id" json:"approving_head1_user_id,omitempty"`
	ApprovingHead1At     *time.Time `db:"approving_head1_at" json:"approving_head1_at,omitempty"`
	FinalApproverUserID  *string    `db:"final_approver_user_id" json:"final_approver_user_id,omitempty"`
	FinalApprovedAt      *time.Time `db:"final_approved_at" json:"final_approved_at,omitempty"`
	RejectionReason      *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	RequestDate          time.Time  `db:"request_date" json:"request_date"`
}

// SwapContext is the row-locked view the state machine operates on: the
// request plus the current teachers of both entries and their resolved
// departments. Departments resolve with direct assignment winning over
// headship, so heads without a users.department_id row still match.
type SwapContext struct {
	Request         SwapRequest
	OrigTeacherID   string
	TargetTeacherID string
	OrigDept        *string
	TargetDept      *string
	Head1Dept       *string
}

// SameDepartment reports whether both entries' teachers belong to one
// (non-null) department, which enables the single-step fast path.
func (c *SwapContext) SameDepartment() bool {
	return c.OrigDept != nil && c.TargetDept != nil && *c.OrigDept == *c.TargetDept
}

// SwapRequestDetail joins a request with names for listings.
type SwapRequestDetail struct {
	SwapRequest
	RequesterName     string  `db:"requester_name" json:"requester_name"`
	OrigClassName     string  `db:"orig_class_name" json:"orig_class_name"`
	OrigSubjectName   string  `db:"orig_subject_name" json:"orig_subject_name"`
	OrigTeacherID     string  `db:"orig_teacher_id" json:"orig_teacher_id"`
	OrigTeacherName   string  `db:"orig_teacher_name" json:"orig_teacher_name"`
	OrigTeacherDept   *string `db:"orig_teacher_dept_id" json:"orig_teacher_dept_id,omitempty"`
	TargetClassName   string  `db:"target_class_name" json:"target_class_name"`
	TargetSubjectName string  `db:"target_subject_name" json:"target_subject_name"`
	TargetTeacherID   string  `db:"target_teacher_id" json:"target_teacher_id"`
	TargetTeacherName string  `db:"target_teacher_name" json:"target_teacher_name"`
	TargetTeacherDept *string `db:"target_teacher_dept_id" json:"target_teacher_dept_id,omitempty"`
	DayOfWeek         int     `db:"day_of_week" json:"day_of_week"`
	PeriodNumber      int     `db:"period_number" json:"period_number"`
	StartTime         string  `db:"start_time" json:"start_time"`
	EndTime           string  `db:"end_time" json:"end_time"`
	Head1Name         *string `db:"head1_approver_name" json:"head1_approver_name,omitempty"`
	FinalApproverName *string `db:"final_approver_name" json:"final_approver_name,omitempty"`
}

// SwapFilter describes listing filters for swap requests.
type SwapFilter struct {
	Status       SwapStatus
	DepartmentID string
	// VisibleToDept restricts rows to requests touching the department or
	// initiated by VisibleToUser (department-head scoping).
	VisibleToDept *string
	VisibleToUser string
}
