package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Request context errors
	ErrOwnerContextMissing = errors.New("owner context missing")

	// Bulk request validation errors
	ErrUnknownBulkAction    = errors.New("unknown bulk action")
	ErrUnknownEntityKind    = errors.New("unknown entity kind")
	ErrEmptyEntityIDs       = errors.New("entity ids are required")
	ErrBlankEntityID        = errors.New("entity ids must not be blank")
	ErrBatchTooLarge        = errors.New("too many entity ids in one batch")
	ErrTargetStatusRequired = errors.New("target status is required for update_status")
	ErrNoteRequired         = errors.New("note is required for add_note")
	ErrNoteTooLong          = errors.New("note is too long")

	// Dashboard errors
	ErrExportFailed = errors.New("failed to export dashboard metrics")
)

const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeOwnerContextMissing  = "OWNER_CONTEXT_MISSING"
	ErrCodeMetricsExportFailure = "METRICS_EXPORT_FAILED"
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func newValidationError(err error) *BusinessError {
	return NewBusinessError(ErrCodeValidation, "invalid bulk operation request", err)
}

// IsValidationError reports whether a whole request was rejected before any item ran
func IsValidationError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be) && be.Code == ErrCodeValidation
}

func IsOwnerContextMissing(err error) bool {
	return errors.Is(err, ErrOwnerContextMissing)
}
