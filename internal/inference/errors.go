package inference

import (
	"fmt"

	"creditscope/internal/domain"
)

// InferenceError is returned once every attempt for a single image has failed.
type InferenceError struct {
	Attempts int
	Err      error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *InferenceError) Unwrap() []error {
	return []error{domain.ErrInferenceFailed, e.Err}
}

// NewInferenceError creates an InferenceError carrying the last underlying error.
func NewInferenceError(attempts int, lastErr error) *InferenceError {
	return &InferenceError{Attempts: attempts, Err: lastErr}
}

// MalformedReportError indicates the report response could not be parsed or validated.
type MalformedReportError struct {
	Reason string
	Raw    string
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed report: %s (raw: %s)", e.Reason, Truncate(e.Raw, 200))
}

func (e *MalformedReportError) Unwrap() error {
	return domain.ErrMalformedReport
}

// Truncate shortens s to maxLen bytes, appending an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
