package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrConfiguration marks invalid or contradictory generation parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrGeneration marks a sampling constraint that could not be met within budget.
	ErrGeneration = errors.New("generation failed")
	// ErrNumericalDegeneracy marks a 0/0 ratio. It is recorded, never returned by the generator.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")

	ErrRunNotFound = errors.New("run not found")
)

// ConfigurationError reports a single invalid parameter. It is always raised
// before any sampling starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// GenerationError reports a generation run that stopped before producing the
// requested number of traces.
type GenerationError struct {
	Requested int
	Produced  int
	Attempts  int
	Cause     error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: produced %d of %d traces after %d attempts", ErrGeneration, e.Produced, e.Requested, e.Attempts)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGeneration}
	}
	return []error{ErrGeneration, e.Cause}
}

// Error constructors with context
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func NewRunNotFoundError(id string) error {
	return fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGeneration)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// AsGenerationError extracts the produced/attempt counters from err.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}
