package models

import "time"

// SubstitutionStatus enumerates the single-step substitution lifecycle.
type SubstitutionStatus string

const (
	SubstitutionActive    SubstitutionStatus = "active"
	SubstitutionCancelled SubstitutionStatus = "cancelled"
)

// Substitution records a one-day temporary teacher replacement for a single
// schedule entry. At most one active substitution may exist per
// (schedule_entry, date).
type Substitution struct {
	ID                      string             `db:"id" json:"id"`
	OriginalScheduleEntryID string             `db:"original_schedule_entry_id" json:"original_schedule_entry_id"`
	OriginalTeacherUserID   string             `db:"original_teacher_user_id" json:"original_teacher_user_id"`
	SubstituteTeacherUserID string             `db:"substitute_teacher_user_id" json:"substitute_teacher_user_id"`
	SubstitutionDate        string             `db:"substitution_date" json:"substitution_date"`
	Reason                  string             `db:"reason" json:"reason"`
	RecordedByUserID        string             `db:"recorded_by_user_id" json:"recorded_by_user_id"`
	Status                  SubstitutionStatus `db:"status" json:"status"`
	CreatedAt               time.Time          `db:"created_at" json:"created_at"`
}

// SubstitutionDetail joins a substitution with display names and slot data.
type SubstitutionDetail struct {
	Substitution
	ClassName           string  `db:"class_name" json:"class_name"`
	SubjectName         string  `db:"subject_name" json:"subject_name"`
	OriginalTeacherName string  `db:"original_teacher_name" json:"original_teacher_name"`
	OriginalTeacherDept *string `db:"original_teacher_dept_id" json:"original_teacher_dept_id,omitempty"`
	SubstituteName      string  `db:"substitute_teacher_name" json:"substitute_teacher_name"`
	RecordedByName      string  `db:"recorded_by_name" json:"recorded_by_name"`
	DayOfWeek           int     `db:"day_of_week" json:"day_of_week"`
	PeriodNumber        int     `db:"period_number" json:"period_number"`
}

// SubstitutionFilter describes listing filters.
type SubstitutionFilter struct {
	Date         string
	TeacherID    string
	SubstituteID string
	DepartmentID string
}
