package errors

import (
	"github.com/cockroachdb/errors"
)

// ErrorDetail is the serializable shape of a single error.
type ErrorDetail struct {
	Message       string                 `json:"message"`
	InternalError string                 `json:"internal_error,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the serializable envelope callers receive for a failed
// computation. The engine itself never emits partial bills alongside one.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts an engine error into its serializable form.
// The hint, when present, is the caller-facing message; the raw error
// string is preserved as the internal message.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	detail := ErrorDetail{
		Message:       err.Error(),
		InternalError: errors.FlattenDetails(err),
		Details:       ReportableDetails(err),
	}
	if hint := Hint(err); hint != "" {
		detail.Message = hint
		detail.InternalError = err.Error()
	}

	return &ErrorResponse{
		Success: false,
		Error:   detail,
	}
}
