package binpack

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrSchemaCycle indicates a structure type references itself,
	// directly or through intermediate types.
	ErrSchemaCycle = errors.New("schema cycle")

	// ErrAmbiguousLayout indicates a structure whose byte layout cannot be
	// resolved, such as two variable-length fields or a tail that is not last.
	ErrAmbiguousLayout = errors.New("ambiguous layout")

	// ErrUnsupportedField indicates a field type the wire format cannot express.
	ErrUnsupportedField = errors.New("unsupported field")

	// ErrInvalidTag indicates a bin tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrBufferOverflow indicates a buffer exceeds the configured size limit.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrNestingDepth indicates decoding recursed past the configured depth limit.
	ErrNestingDepth = errors.New("nesting depth exceeded")

	// ErrInsufficientData indicates the buffer is truncated relative to the schema.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrValidation indicates a decoded value failed a declared constraint.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimit indicates a rate limiter has no tokens available.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrSecurityConfig indicates an invalid security configuration value.
	ErrSecurityConfig = errors.New("invalid security config")

	// ErrNilInstance indicates a nil instance was passed to Marshal.
	ErrNilInstance = errors.New("nil instance")
)

// SchemaError represents a schema derivation failure.
// It wraps a sentinel error with the type and field that triggered it.
type SchemaError struct {
	Err    error  // Underlying sentinel error (ErrSchemaCycle, etc.)
	Type   string // Structure type being derived
	Field  string // Field that triggered the error, if any
	Detail string // Additional context
}

func (e *SchemaError) Error() string {
	msg := e.Err.Error()
	if e.Type != "" {
		msg = fmt.Sprintf("%s in type %s", msg, e.Type)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// OverflowError represents a buffer exceeding the configured size limit.
// Raised before any allocation or field interpretation takes place.
type OverflowError struct {
	Err       error // ErrBufferOverflow
	Requested int   // Size that was requested or supplied
	Max       int   // Configured maximum
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds limit %d", e.Err.Error(), e.Requested, e.Max)
}

func (e *OverflowError) Unwrap() error {
	return e.Err
}

// DepthError represents decoding past the configured nesting depth.
type DepthError struct {
	Err   error // ErrNestingDepth
	Depth int   // Depth that was reached
	Max   int   // Configured maximum
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("%s: depth %d exceeds limit %d", e.Err.Error(), e.Depth, e.Max)
}

func (e *DepthError) Unwrap() error {
	return e.Err
}

// TruncatedError represents a buffer shorter than the schema requires.
// Expected is the number of bytes the schema needed at the point of failure,
// Available is the number of bytes the buffer held.
type TruncatedError struct {
	Err       error // ErrInsufficientData
	Expected  int
	Available int
	Field     string // First field that did not fit
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, have %d (field %s)", e.Err.Error(), e.Expected, e.Available, e.Field)
}

func (e *TruncatedError) Unwrap() error {
	return e.Err
}

// ValidationError represents a decoded value violating its declared constraint.
type ValidationError struct {
	Err        error // ErrValidation
	Field      string
	Value      uint64
	Constraint string // Constraint as written in the tag
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %s value %d violates %q", e.Err.Error(), e.Field, e.Value, e.Constraint)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RateLimitError represents a depleted rate limiter.
// The caller may wait and retry; the limiter refills over time.
type RateLimitError struct {
	Err       error // ErrRateLimit
	Operation string
	Limit     int
	Window    time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s for %q: %d per %s", e.Err.Error(), e.Operation, e.Limit, e.Window)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid security configuration value.
type ConfigError struct {
	Err       error // ErrSecurityConfig
	Parameter string
	Value     int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s = %d", e.Err.Error(), e.Parameter, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// newSchemaError creates a SchemaError for derivation failures.
func newSchemaError(sentinel error, typeName, field, detail string) error {
	return &SchemaError{
		Err:    sentinel,
		Type:   typeName,
		Field:  field,
		Detail: detail,
	}
}

// newOverflowError creates an OverflowError for size limit violations.
func newOverflowError(requested, max int) error {
	return &OverflowError{
		Err:       ErrBufferOverflow,
		Requested: requested,
		Max:       max,
	}
}

// newDepthError creates a DepthError for nesting limit violations.
func newDepthError(depth, max int) error {
	return &DepthError{
		Err:   ErrNestingDepth,
		Depth: depth,
		Max:   max,
	}
}

// newTruncatedError creates a TruncatedError for short buffers.
func newTruncatedError(expected, available int, field string) error {
	return &TruncatedError{
		Err:       ErrInsufficientData,
		Expected:  expected,
		Available: available,
		Field:     field,
	}
}

// newValidationError creates a ValidationError for constraint violations.
func newValidationError(field string, value uint64, constraint string) error {
	return &ValidationError{
		Err:        ErrValidation,
		Field:      field,
		Value:      value,
		Constraint: constraint,
	}
}

// newRateLimitError creates a RateLimitError for depleted limiters.
func newRateLimitError(operation string, limit int, window time.Duration) error {
	return &RateLimitError{
		Err:       ErrRateLimit,
		Operation: operation,
		Limit:     limit,
		Window:    window,
	}
}

// newConfigError creates a ConfigError for invalid configuration values.
func newConfigError(parameter string, value int) error {
	return &ConfigError{
		Err:       ErrSecurityConfig,
		Parameter: parameter,
		Value:     value,
	}
}
