package schemas

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind tags a GatewayError with the subsystem-level taxonomy from the
// error handling design: every failure the pipeline raises carries exactly
// one of these kinds, and the same kind is forwarded to the onError hook.
type ErrorKind string

const (
	ErrorKindNoModelFound             ErrorKind = "no-model-found"
	ErrorKindProviderCapabilityMissing ErrorKind = "provider-capability-missing"
	ErrorKindDispatchUnsupported      ErrorKind = "dispatch-unsupported"
	ErrorKindValidationFailed         ErrorKind = "validation-failed"
	ErrorKindCancelled                ErrorKind = "cancelled"
	ErrorKindProviderError            ErrorKind = "provider-error"
	ErrorKindRegistryError            ErrorKind = "registry-error"
)

// ErrorField carries the human-readable detail of a GatewayError.
type ErrorField struct {
	Message string      `json:"message"`
	Err     error       `json:"error,omitempty"`
	Param   interface{} `json:"param,omitempty"`
}

// GatewayError is the single error type every request-path operation
// returns (in place of a bare error), so callers can always discriminate
// on Kind without type-asserting an opaque error.
type GatewayError struct {
	EventID        *string    `json:"event_id,omitempty"`
	Kind           ErrorKind  `json:"kind"`
	IsGatewayError bool       `json:"is_gateway_error"`
	StatusCode     *int       `json:"status_code,omitempty"`
	Operation      string     `json:"operation,omitempty"`
	Err            ErrorField `json:"error"`
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "<nil gateway error>"
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s: %s", e.Operation, e.Kind, e.Err.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Message)
}

// Unwrap lets errors.Is/errors.As reach the wrapped cause, if any.
func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err.Err
}

// errRequired builds the validation error for a missing required field.
func errRequired(field string) *GatewayError {
	return NewGatewayError(ErrorKindValidationFailed, "", field+" is required", nil)
}

// errInvalidContextWindow builds the validation error for a non-positive
// context window.
func errInvalidContextWindow(got int) *GatewayError {
	return NewGatewayError(ErrorKindValidationFailed, "", fmt.Sprintf("contextWindow must be >= 1, got %d", got), nil)
}

// NewGatewayError builds a GatewayError of the given kind, optionally
// wrapping cause, and tagging it with the operation family that raised it
// (e.g. "chat", "image-generate"); streaming and non-streaming calls of a
// family carry the same tag, and the tag is not passed to onError. Every
// error gets its own EventID so it can be correlated across logs/hooks
// even when several requests fail with the same kind concurrently.
func NewGatewayError(kind ErrorKind, operation string, message string, cause error) *GatewayError {
	eventID := uuid.NewString()
	return &GatewayError{
		EventID:        &eventID,
		Kind:           kind,
		IsGatewayError: true,
		Operation:      operation,
		Err: ErrorField{
			Message: message,
			Err:     cause,
		},
	}
}
