package dto

// CreateScheduleEntryRequest payload for creating a schedule entry.
type CreateScheduleEntryRequest struct {
	ClassID       string `json:"class_id" validate:"required"`
	SubjectID     string `json:"subject_id" validate:"required"`
	TeacherUserID string `json:"teacher_user_id" validate:"required"`
	TimeSlotID    string `json:"time_slot_id" validate:"required"`
	AcademicYear  string `json:"academic_year" validate:"required"`
}

// UpdateScheduleEntryRequest payload for replacing a schedule entry.
type UpdateScheduleEntryRequest struct {
	ClassID       string `json:"class_id" validate:"required"`
	SubjectID     string `json:"subject_id" validate:"required"`
	TeacherUserID string `json:"teacher_user_id" validate:"required"`
	TimeSlotID    string `json:"time_slot_id" validate:"required"`
	AcademicYear  string `json:"academic_year" validate:"required"`
}

// ScheduleQuery mirrors the supported listing filters.
type ScheduleQuery struct {
	ClassID      string
	TeacherID    string
	DayOfWeek    string
	AcademicYear string
}
