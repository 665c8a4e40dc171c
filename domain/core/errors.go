package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Ingestion errors
	ErrEmptyInput           = errors.New("no observations in input")
	ErrMalformedObservation = errors.New("malformed observation")
	ErrNoFeatureData        = errors.New("no feature data in source")

	// Analysis errors
	ErrInsufficientSample  = errors.New("insufficient sample for analysis")
	ErrDegenerateGeometry  = errors.New("degenerate geometry in coordinates")
	ErrConstantIndicator   = errors.New("constant indicator has no variance")
	ErrDimensionMismatch   = errors.New("dimension mismatch between weights and values")
	ErrUnknownWeightScheme = errors.New("unknown weight scheme")
)

// Error constructors with context
func NewInsufficientSampleError(n, minimum int) error {
	return fmt.Errorf("%w: n=%d, minimum=%d", ErrInsufficientSample, n, minimum)
}

func NewDegenerateGeometryError(i, j int) error {
	return fmt.Errorf("%w: points %d and %d are co-located", ErrDegenerateGeometry, i, j)
}

func NewMalformedObservationError(id string, reason string) error {
	return fmt.Errorf("%w: %s (%s)", ErrMalformedObservation, id, reason)
}

// Error checking helpers
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

func IsInsufficientSample(err error) bool {
	return errors.Is(err, ErrInsufficientSample)
}

func IsDegenerateGeometry(err error) bool {
	return errors.Is(err, ErrDegenerateGeometry)
}

func IsConstantIndicator(err error) bool {
	return errors.Is(err, ErrConstantIndicator)
}

func IsMalformedObservation(err error) bool {
	return errors.Is(err, ErrMalformedObservation)
}

// IsFeatureScoped reports whether an error aborts only a single feature's
// analysis rather than the whole run.
func IsFeatureScoped(err error) bool {
	return errors.Is(err, ErrInsufficientSample) ||
		errors.Is(err, ErrDegenerateGeometry) ||
		errors.Is(err, ErrConstantIndicator) ||
		errors.Is(err, ErrDimensionMismatch)
}
