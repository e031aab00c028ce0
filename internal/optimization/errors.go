package optimization

import (
	"errors"
	"fmt"
)

// Invariants checked before a configuration is synthesized.
const (
	InvariantUniqueParameterName = "unique-parameter-name"
	InvariantParameterKind       = "known-parameter-kind"
	InvariantContinuousBounds    = "continuous-lower-below-upper"
	InvariantNonEmptyValues      = "non-empty-value-set"
	InvariantTolerance           = "non-negative-tolerance"
	InvariantTargetCount         = "objective-target-count"
	InvariantUniqueTargetName    = "unique-target-name"
	InvariantTargetMode          = "known-target-mode"
	InvariantMatchBounds         = "match-target-bounds"
	InvariantTargetWeight        = "non-negative-target-weight"
	InvariantMeasurementCount    = "non-negative-measurement-count"
	InvariantOverride            = "override-decodes"
	InvariantCompatibility       = "acquisition-surrogate-compatibility"
	InvariantConstraint          = "constraint-references-parameters"
	InvariantMeasurement         = "measurement-matches-declarations"
)

// ValidationError reports a structurally invalid input to the synthesizer.
// Invariant names the rule that was violated.
type ValidationError struct {
	// Invariant is one of the Invariant* constants.
	Invariant string
	// Field locates the offending value, e.g. "parameters[2].bounds".
	Field string
	// Message describes the violation.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := "validation failed: " + e.Invariant
	if e.Field != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithField sets the location of the offending value.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(invariant, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Invariant: invariant,
		Message:   fmt.Sprintf(format, args...),
	}
}

// WrapValidationError wraps err as a violation of invariant.
// If err is nil, WrapValidationError returns nil.
func WrapValidationError(err error, invariant, message string) *ValidationError {
	if err == nil {
		return nil
	}
	return &ValidationError{
		Invariant: invariant,
		Message:   message,
		Err:       err,
	}
}

// IsValidationError checks if err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
