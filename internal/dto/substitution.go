package dto

// CreateSubstitutionRequest payload for recording a one-day replacement.
type CreateSubstitutionRequest struct {
	OriginalScheduleEntryID string `json:"original_schedule_entry_id" validate:"required"`
	SubstituteTeacherUserID string `json:"substitute_teacher_user_id" validate:"required"`
	SubstitutionDate        string `json:"substitution_date" validate:"required,datetime=2006-01-02"`
	Reason                  string `json:"reason"`
}

// SubstitutionQuery mirrors the supported listing filters.
type SubstitutionQuery struct {
	Date         string
	TeacherID    string
	SubstituteID string
	DepartmentID string
}
