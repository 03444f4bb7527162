package dto

// BulkAction names a mutation applied to every entity in a bulk request
type BulkAction string

const (
	BulkActionUpdateStatus BulkAction = "update_status"
	BulkActionDelete       BulkAction = "delete"
	BulkActionAddNote      BulkAction = "add_note"
)

// Valid checks if the action is supported
func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionUpdateStatus, BulkActionDelete, BulkActionAddNote:
		return true
	default:
		return false
	}
}

// BulkOperationPayload carries the action specific arguments
type BulkOperationPayload struct {
	TargetStatus string `json:"target_status,omitempty" validate:"omitempty,max=32"`
	Note         string `json:"note,omitempty" validate:"omitempty"`
}

// BulkOperationRequest is one batch of mutations of the same kind over many entities
type BulkOperationRequest struct {
	Action    BulkAction           `json:"action" validate:"required"`
	Kind      string               `json:"kind" validate:"required"`
	EntityIDs []string             `json:"entity_ids" validate:"required"`
	Payload   BulkOperationPayload `json:"payload"`
}

// Per-item error codes reported in BulkOperationResult.PerItemErrors
const (
	ItemErrorNotFound             = "NOT_FOUND"
	ItemErrorStoreError           = "STORE_ERROR"
	ItemErrorCancelled            = "CANCELLED"
	ItemErrorUnknownStatus        = "UNKNOWN_STATUS"
	ItemErrorTransitionNotAllowed = "TRANSITION_NOT_ALLOWED"
)

// ItemError explains why one entity of a batch was not mutated
type ItemError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// BulkOperationResult summarises a batch. SuccessCount plus the number of
// per-item errors never exceeds TotalCount.
type BulkOperationResult struct {
	Action         BulkAction           `json:"action"`
	Kind           string               `json:"kind"`
	TotalCount     int                  `json:"total_count"`
	ProcessedCount int                  `json:"processed_count"`
	SuccessCount   int                  `json:"success_count"`
	SucceededIDs   []string             `json:"succeeded_ids"`
	NoOpIDs        []string             `json:"noop_ids"`
	PerItemErrors  map[string]ItemError `json:"per_item_errors"`
}
