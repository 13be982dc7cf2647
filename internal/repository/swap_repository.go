package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/open-sams/sams-api/internal/models"
)

// swapDetailSelect joins a request with both entries, their teachers and the
// shared time slot for listings and detail reads.
const swapDetailSelect = `SELECT sr.id, sr.requesting_user_id, sr.original_entry_id, sr.target_entry_id,
       sr.reason, sr.status, sr.approving_head1_user_id, sr.approving_head1_at,
       sr.final_approver_user_id, sr.final_approved_at, sr.rejection_reason, sr.request_date,
       ru.full_name AS requester_name,
       oc.name AS orig_class_name,
       os.name AS orig_subject_name,
       oe.teacher_user_id AS orig_teacher_id,
       ou.full_name AS orig_teacher_name,
       COALESCE(ou.department_id, ohd.id) AS orig_teacher_dept_id,
       tc.name AS target_class_name,
       tsub.name AS target_subject_name,
       te.teacher_user_id AS target_teacher_id,
       tu.full_name AS target_teacher_name,
       COALESCE(tu.department_id, thd.id) AS target_teacher_dept_id,
       ts.day_of_week, ts.period_number, ts.start_time, ts.end_time,
       h1.full_name AS head1_approver_name,
       fa.full_name AS final_approver_name
	FROM schedule_swap_requests sr
	JOIN users ru ON ru.id = sr.requesting_user_id
	JOIN class_schedules oe ON oe.id = sr.original_entry_id
	JOIN classes oc ON oc.id = oe.class_id
	JOIN subjects os ON os.id = oe.subject_id
	JOIN users ou ON ou.id = oe.teacher_user_id
	LEFT JOIN departments ohd ON ohd.head_user_id = ou.id
	JOIN class_schedules te ON te.id = sr.target_entry_id
	JOIN classes tc ON tc.id = te.class_id
	JOIN subjects tsub ON tsub.id = te.subject_id
	JOIN users tu ON tu.id = te.teacher_user_id
	LEFT JOIN departments thd ON thd.head_user_id = tu.id
	JOIN time_slots ts ON ts.id = oe.time_slot_id
	LEFT JOIN users h1 ON h1.id = sr.approving_head1_user_id
	LEFT JOIN users fa ON fa.id = sr.final_approver_user_id`

// lockedSwapRow is the flat shape of the row-locked read the state machine
// runs on. Departments resolve direct assignment first, then headship; the
// first approver's department resolves the same way so the final approver
// check can compare against it.
type lockedSwapRow struct {
	models.SwapRequest
	OrigTeacherID   string  `db:"orig_teacher_id"`
	TargetTeacherID string  `db:"target_teacher_id"`
	OrigDept        *string `db:"orig_teacher_dept_id"`
	TargetDept      *string `db:"target_teacher_dept_id"`
	Head1Dept       *string `db:"head1_dept_id"`
}

const lockedSwapSelect = `SELECT sr.id, sr.requesting_user_id, sr.original_entry_id, sr.target_entry_id,
       sr.reason, sr.status, sr.approving_head1_user_id, sr.approving_head1_at,
       sr.final_approver_user_id, sr.final_approved_at, sr.rejection_reason, sr.request_date,
       oe.teacher_user_id AS orig_teacher_id,
       te.teacher_user_id AS target_teacher_id,
       COALESCE(ou.department_id, ohd.id) AS orig_teacher_dept_id,
       COALESCE(tu.department_id, thd.id) AS target_teacher_dept_id,
       COALESCE(h1.department_id, h1d.id) AS head1_dept_id
	FROM schedule_swap_requests sr
	JOIN class_schedules oe ON oe.id = sr.original_entry_id
	JOIN class_schedules te ON te.id = sr.target_entry_id
	JOIN users ou ON ou.id = oe.teacher_user_id
	LEFT JOIN departments ohd ON ohd.head_user_id = ou.id
	JOIN users tu ON tu.id = te.teacher_user_id
	LEFT JOIN departments thd ON thd.head_user_id = tu.id
	LEFT JOIN users h1 ON h1.id = sr.approving_head1_user_id
	LEFT JOIN departments h1d ON h1d.head_user_id = h1.id
	WHERE sr.id = $1
	FOR UPDATE OF sr, oe, te`

// SwapRepository persists schedule swap requests.
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository constructs the repository.
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// Create inserts a new pending request.
func (r *SwapRepository) Create(ctx context.Context, request *models.SwapRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.SwapStatusPending
	}
	if request.RequestDate.IsZero() {
		request.RequestDate = time.Now().UTC()
	}
	const query = `INSERT INTO schedule_swap_requests
		(id, requesting_user_id, original_entry_id, target_entry_id, reason, status, request_date)
		VALUES (:id, :requesting_user_id, :original_entry_id, :target_entry_id, :reason, :status, :request_date)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}
	return nil
}

// GetDetailByID fetches a request with display data.
func (r *SwapRepository) GetDetailByID(ctx context.Context, id string) (*models.SwapRequestDetail, error) {
	query := swapDetailSelect + " WHERE sr.id = $1"
	var detail models.SwapRequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns requests matching the filter, newest first.
func (r *SwapRepository) List(ctx context.Context, filter models.SwapFilter) ([]models.SwapRequestDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(swapDetailSelect)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 3)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("sr.status = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(COALESCE(ou.department_id, ohd.id) = $%d OR COALESCE(tu.department_id, thd.id) = $%d)", n, n))
	}
	if filter.VisibleToDept != nil || filter.VisibleToUser != "" {
		parts := make([]string, 0, 2)
		if filter.VisibleToDept != nil {
			args = append(args, *filter.VisibleToDept)
			n := len(args)
			parts = append(parts, fmt.Sprintf(
				"COALESCE(ou.department_id, ohd.id) = $%d OR COALESCE(tu.department_id, thd.id) = $%d", n, n))
		}
		if filter.VisibleToUser != "" {
			args = append(args, filter.VisibleToUser)
			parts = append(parts, fmt.Sprintf("sr.requesting_user_id = $%d", len(args)))
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY sr.request_date DESC")

	var requests []models.SwapRequestDetail
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list swap requests: %w", err)
	}
	return requests, nil
}

// WithLockedRequest runs fn inside a transaction holding row locks on the
// request and both schedule entries. The context passed to fn reflects the
// row state under the lock; any error from fn rolls the transaction back.
func (r *SwapRepository) WithLockedRequest(ctx context.Context, id string, fn func(tx *sqlx.Tx, sc *models.SwapContext) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var row lockedSwapRow
	if err := tx.GetContext(ctx, &row, lockedSwapSelect, id); err != nil {
		return err
	}
	sc := &models.SwapContext{
		Request:         row.SwapRequest,
		OrigTeacherID:   row.OrigTeacherID,
		TargetTeacherID: row.TargetTeacherID,
		OrigDept:        row.OrigDept,
		TargetDept:      row.TargetDept,
		Head1Dept:       row.Head1Dept,
	}
	if err := fn(tx, sc); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap transaction: %w", err)
	}
	committed = true
	return nil
}

// MarkFirstApproval records the first-step sign-off.
func (r *SwapRepository) MarkFirstApproval(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time) error {
	const query = `UPDATE schedule_swap_requests
		SET status = $1, approving_head1_user_id = $2, approving_head1_at = $3
		WHERE id = $4`
	return execExpectingRow(ctx, tx, query, models.SwapStatusApprovedByHead1, approverID, at, id)
}

// MarkApproved records the terminal approval. When the single-step fast path
// applies the approver is stamped on both approval columns.
func (r *SwapRepository) MarkApproved(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time, stampFirst bool) error {
	if stampFirst {
		const query = `UPDATE schedule_swap_requests
			SET status = $1, approving_head1_user_id = $2, approving_head1_at = $3,
			    final_approver_user_id = $2, final_approved_at = $3
			WHERE id = $4`
		return execExpectingRow(ctx, tx, query, models.SwapStatusApproved, approverID, at, id)
	}
	const query = `UPDATE schedule_swap_requests
		SET status = $1, final_approver_user_id = $2, final_approved_at = $3
		WHERE id = $4`
	return execExpectingRow(ctx, tx, query, models.SwapStatusApproved, approverID, at, id)
}

// MarkRejected records a rejection, stamping the deciding actor as the final
// approver alongside the mandatory reason.
func (r *SwapRepository) MarkRejected(ctx context.Context, tx *sqlx.Tx, id, approverID, reason string, at time.Time) error {
	const query = `UPDATE schedule_swap_requests
		SET status = $1, final_approver_user_id = $2, final_approved_at = $3, rejection_reason = $4
		WHERE id = $5`
	return execExpectingRow(ctx, tx, query, models.SwapStatusRejected, approverID, at, reason, id)
}

// SwapTeachers exchanges the teacher assignments of both entries using the
// teacher ids captured by the locked read, so the updates stay a true
// exchange even though they run sequentially.
func (r *SwapRepository) SwapTeachers(ctx context.Context, tx *sqlx.Tx, sc *models.SwapContext) error {
	const query = `UPDATE class_schedules SET teacher_user_id = $1, updated_at = $2 WHERE id = $3`
	now := time.Now().UTC()
	if err := execExpectingRow(ctx, tx, query, sc.TargetTeacherID, now, sc.Request.OriginalEntryID); err != nil {
		return fmt.Errorf("swap original entry: %w", err)
	}
	if err := execExpectingRow(ctx, tx, query, sc.OrigTeacherID, now, sc.Request.TargetEntryID); err != nil {
		return fmt.Errorf("swap target entry: %w", err)
	}
	return nil
}

func execExpectingRow(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
