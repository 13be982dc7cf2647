package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/open-sams/sams-api/internal/models"
)

const substitutionDetailSelect = `SELECT sub.id, sub.original_schedule_entry_id, sub.original_teacher_user_id,
       sub.substitute_teacher_user_id, sub.substitution_date, sub.reason,
       sub.recorded_by_user_id, sub.status, sub.created_at,
       c.name AS class_name,
       s.name AS subject_name,
       ot.full_name AS original_teacher_name,
       COALESCE(ot.department_id, ohd.id) AS original_teacher_dept_id,
       st.full_name AS substitute_teacher_name,
       rb.full_name AS recorded_by_name,
       ts.day_of_week, ts.period_number
	FROM substitutions sub
	JOIN class_schedules se ON se.id = sub.original_schedule_entry_id
	JOIN classes c ON c.id = se.class_id
	JOIN subjects s ON s.id = se.subject_id
	JOIN users ot ON ot.id = sub.original_teacher_user_id
	LEFT JOIN departments ohd ON ohd.head_user_id = ot.id
	JOIN users st ON st.id = sub.substitute_teacher_user_id
	JOIN users rb ON rb.id = sub.recorded_by_user_id
	JOIN time_slots ts ON ts.id = se.time_slot_id`

// SubstitutionRepository persists one-day teacher replacements.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// HasActiveOnDate reports whether the entry already has an active
// substitution for the date.
func (r *SubstitutionRepository) HasActiveOnDate(ctx context.Context, entryID, date string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM substitutions
		WHERE original_schedule_entry_id = $1 AND substitution_date = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, entryID, date, models.SubstitutionActive); err != nil {
		return false, fmt.Errorf("check active substitution: %w", err)
	}
	return exists, nil
}

// Create inserts an active substitution.
func (r *SubstitutionRepository) Create(ctx context.Context, sub *models.Substitution) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = models.SubstitutionActive
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO substitutions
		(id, original_schedule_entry_id, original_teacher_user_id, substitute_teacher_user_id,
		 substitution_date, reason, recorded_by_user_id, status, created_at)
		VALUES (:id, :original_schedule_entry_id, :original_teacher_user_id, :substitute_teacher_user_id,
		 :substitution_date, :reason, :recorded_by_user_id, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return err
	}
	return nil
}

// GetDetailByID fetches a substitution with display data.
func (r *SubstitutionRepository) GetDetailByID(ctx context.Context, id string) (*models.SubstitutionDetail, error) {
	query := substitutionDetailSelect + " WHERE sub.id = $1"
	var detail models.SubstitutionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns substitutions matching the filter, newest date first.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(substitutionDetailSelect)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("sub.substitution_date = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("sub.original_teacher_user_id = $%d", len(args)))
	}
	if filter.SubstituteID != "" {
		args = append(args, filter.SubstituteID)
		conditions = append(conditions, fmt.Sprintf("sub.substitute_teacher_user_id = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("COALESCE(ot.department_id, ohd.id) = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY sub.substitution_date DESC, ts.day_of_week, ts.period_number")

	var subs []models.SubstitutionDetail
	if err := r.db.SelectContext(ctx, &subs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list substitutions: %w", err)
	}
	return subs, nil
}

// Cancel marks an active substitution cancelled. Returns the affected rows so
// callers can distinguish missing from already cancelled.
func (r *SubstitutionRepository) Cancel(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE substitutions SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.SubstitutionCancelled, id, models.SubstitutionActive)
	if err != nil {
		return 0, fmt.Errorf("cancel substitution: %w", err)
	}
	return result.RowsAffected()
}
