package dto

// CreateSwapRequest payload for requesting a teacher exchange between two
// schedule entries in the same time slot.
type CreateSwapRequest struct {
	OriginalEntryID string `json:"original_entry_id" validate:"required"`
	TargetEntryID   string `json:"target_entry_id" validate:"required"`
	Reason          string `json:"reason"`
}

// RejectSwapRequest carries the mandatory rejection reason.
type RejectSwapRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
}

// SwapQuery mirrors the supported listing filters.
type SwapQuery struct {
	Status       string
	DepartmentID string
}
