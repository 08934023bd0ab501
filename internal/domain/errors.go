package domain

import (
	"errors"
	"fmt"
)

// ErrNoFaceDetected is returned when registration runs with zero faces in the
// current frame.
var ErrNoFaceDetected = errors.New("no face detected in frame")

// ValidationError reports a missing or malformed required field. It is raised
// before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DeviceError reports an unavailable or denied capture device.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s unavailable: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ExternalServiceError reports a store or provider that is unreachable or
// answered with a non-success status.
type ExternalServiceError struct {
	Provider string
	Status   string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: status %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ModelInferenceError reports a failed detection or embedding model call.
type ModelInferenceError struct {
	Model string
	Err   error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Model, e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }
