package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the sentinel wrapped by ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrResource is the sentinel wrapped by ResourceError.
	ErrResource = errors.New("insufficient device memory")

	// ErrContext is returned when no device matches or a context cannot
	// be created or used. It terminates the sweep.
	ErrContext = errors.New("context error")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrNotAllocated is returned when a plan step needs buffers that
	// were not allocated.
	ErrNotAllocated = errors.New("buffers not allocated")

	// ErrNotInitialized is returned when a transform is executed before
	// its plan was initialized.
	ErrNotInitialized = errors.New("plan not initialized")

	// ErrHostBuffer is returned when an upload or download buffer has the
	// wrong type or length.
	ErrHostBuffer = errors.New("invalid host buffer")
)

// ConfigurationError reports an unsupported or invalid configuration.
// It is fatal for the whole sweep.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ResourceError reports that a plan would exceed the device memory budget.
// It is scoped to one configuration.
type ResourceError struct {
	Budget  int64
	Wanted  int64
	Deficit int64
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: wanted %d bytes, budget %d bytes, deficit %d bytes",
		ErrResource, e.Wanted, e.Budget, e.Deficit)
}

// Unwrap returns ErrResource.
func (e *ResourceError) Unwrap() error {
	return ErrResource
}

// BackendCallError reports a failed backend library call.
type BackendCallError struct {
	Op  string
	Err error
}

func (e *BackendCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *BackendCallError) Unwrap() error {
	return e.Err
}

// ValidationError reports a round-trip deviation above the bound. It is
// an annotation on the result, not a failure.
type ValidationError struct {
	Deviation float64
	Bound     float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("round-trip deviation %g exceeds bound %g", e.Deviation, e.Bound)
}
