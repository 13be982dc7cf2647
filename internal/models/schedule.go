package models

import "time"

// TimeSlot is read-only reference data: one teaching period in the weekly
// grid, unique on (day_of_week, period_number).
type TimeSlot struct {
	ID           string `db:"id" json:"id"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int    `db:"period_number" json:"period_number"`
	StartTime    string `db:"start_time" json:"start_time"`
	EndTime      string `db:"end_time" json:"end_time"`
}

// ScheduleEntry assigns a teacher to a class/subject for one slot in an
// academic year. Unique on (class_id, time_slot_id, academic_year).
type ScheduleEntry struct {
	ID            string    `db:"id" json:"id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	TeacherUserID string    `db:"teacher_user_id" json:"teacher_user_id"`
	TimeSlotID    string    `db:"time_slot_id" json:"time_slot_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleEntryDetail joins an entry with its display names and slot data.
type ScheduleEntryDetail struct {
	ScheduleEntry
	ClassName    string  `db:"class_name" json:"class_name"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	TeacherName  string  `db:"teacher_name" json:"teacher_name"`
	TeacherDept  *string `db:"teacher_department_id" json:"teacher_department_id,omitempty"`
	DayOfWeek    int     `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int     `db:"period_number" json:"period_number"`
	StartTime    string  `db:"start_time" json:"start_time"`
	EndTime      string  `db:"end_time" json:"end_time"`
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	ClassID      string
	TeacherID    string
	DayOfWeek    *int
	AcademicYear string
}
