package availability

import (
	"errors"
	"fmt"
)

// ValidationError marks bad or missing caller input. It is surfaced directly
// and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("availability: invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError marks a transient scheduling-provider failure. Callers may
// retry the whole evaluation.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("availability: upstream unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a request-validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is a retryable provider failure.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
