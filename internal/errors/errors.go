// Package errors provides the error construction and classification
// primitives used across the billing engine. Errors are built with a
// fluent builder, annotated with hints and reportable details for the
// caller, and marked with one of the sentinel errors below so callers
// can branch on the failure class without string matching.
package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for the engine's failure taxonomy. Use Mark to attach
// one of these to an error and the Is* helpers to test for them.
var (
	// ErrSchema indicates the input interval series violates the canonical
	// invariants (not sorted, not tz-aware, duplicate timestamps).
	ErrSchema = errors.New("schema error")
	// ErrCycleConfig indicates a billing-cycle specification that is
	// non-contiguous, empty, or has inverted bounds.
	ErrCycleConfig = errors.New("cycle config error")
	// ErrClassification indicates an invalid TOU band configuration,
	// detected at classifier construction time.
	ErrClassification = errors.New("classification error")
	// ErrRateConfig indicates a tariff rate structure missing a rate for a
	// band present in the data.
	ErrRateConfig = errors.New("rate config error")
	// ErrValidation indicates invalid input outside the billing-specific
	// classes above.
	ErrValidation = errors.New("validation error")
	// ErrInternal indicates an unexpected engine failure.
	ErrInternal = errors.New("internal error")
)

// InternalError carries the cause together with a caller-facing hint and
// structured details. It is the concrete type produced by the builder.
type InternalError struct {
	cause             error
	hint              string
	reportableDetails map[string]interface{}
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// ErrorBuilder builds an error with optional hint and reportable details.
// Terminate the chain with Mark to classify and materialize the error.
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts building an error with the given message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.New(message)}}
}

// NewErrorf starts building an error with a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.Newf(format, args...)}}
}

// WithError starts building an error wrapping an existing cause.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: err}}
}

// WithHint attaches a human-readable hint describing how to resolve the error.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = errors.Newf(format, args...).Error()
	return b
}

// WithReportableDetails attaches structured context (cycle label, timestamp,
// band name) so the failure can be diagnosed without re-running.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark classifies the error with the given sentinel and returns it.
func (b *ErrorBuilder) Mark(mark error) error {
	return errors.Mark(b.err, mark)
}

// IsSchema reports whether err is marked as a schema error.
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsCycleConfig reports whether err is marked as a cycle config error.
func IsCycleConfig(err error) bool {
	return errors.Is(err, ErrCycleConfig)
}

// IsClassification reports whether err is marked as a classification error.
func IsClassification(err error) bool {
	return errors.Is(err, ErrClassification)
}

// IsRateConfig reports whether err is marked as a rate config error.
func IsRateConfig(err error) bool {
	return errors.Is(err, ErrRateConfig)
}

// IsValidation reports whether err is marked as a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Hint returns the hint attached to err, if any.
func Hint(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.hint
	}
	return ""
}

// ReportableDetails returns the structured details attached to err, if any.
func ReportableDetails(err error) map[string]interface{} {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.reportableDetails
	}
	return nil
}
