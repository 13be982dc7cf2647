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

// scheduleDetailSelect joins entries with class, subject, teacher and slot
// data. The teacher's department resolves direct assignment first, then
// headship.
const scheduleDetailSelect = `SELECT se.id, se.class_id, se.subject_id, se.teacher_user_id, se.time_slot_id,
       se.academic_year, se.created_at, se.updated_at,
       c.name AS class_name,
       s.name AS subject_name,
       u.full_name AS teacher_name,
       COALESCE(u.department_id, hd.id) AS teacher_department_id,
       ts.day_of_week, ts.period_number, ts.start_time, ts.end_time
	FROM class_schedules se
	JOIN classes c ON c.id = se.class_id
	JOIN subjects s ON s.id = se.subject_id
	JOIN users u ON u.id = se.teacher_user_id
	LEFT JOIN departments hd ON hd.head_user_id = u.id
	JOIN time_slots ts ON ts.id = se.time_slot_id`

// ScheduleRepository persists timetable entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO class_schedules
		(id, class_id, subject_id, teacher_user_id, time_slot_id, academic_year, created_at, updated_at)
		VALUES (:id, :class_id, :subject_id, :teacher_user_id, :time_slot_id, :academic_year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return err
	}
	return nil
}

// GetDetailByID fetches one entry with display data.
func (r *ScheduleRepository) GetDetailByID(ctx context.Context, id string) (*models.ScheduleEntryDetail, error) {
	query := scheduleDetailSelect + " WHERE se.id = $1"
	var detail models.ScheduleEntryDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns entries matching the filter ordered by slot position.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntryDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(scheduleDetailSelect)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("se.class_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("se.teacher_user_id = $%d", len(args)))
	}
	if filter.DayOfWeek != nil {
		args = append(args, *filter.DayOfWeek)
		conditions = append(conditions, fmt.Sprintf("ts.day_of_week = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("se.academic_year = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY ts.day_of_week, ts.period_number, c.name")

	var entries []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// Update replaces the mutable columns of an entry.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) (int64, error) {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_schedules
		SET class_id = :class_id, subject_id = :subject_id, teacher_user_id = :teacher_user_id,
		    time_slot_id = :time_slot_id, academic_year = :academic_year, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes an entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM class_schedules WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
