package core

import (
	"errors"
	"fmt"
	"testing"
)

// TestSentinelMatching tests that wrapped errors still match their sentinels
func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		check    func(error) bool
	}{
		{"empty input", fmt.Errorf("baseline: %w", ErrEmptyInput), ErrEmptyInput, IsEmptyInput},
		{"insufficient sample", NewInsufficientSampleError(3, 4), ErrInsufficientSample, IsInsufficientSample},
		{"degenerate geometry", NewDegenerateGeometryError(0, 7), ErrDegenerateGeometry, IsDegenerateGeometry},
		{"constant indicator", fmt.Errorf("moran: %w", ErrConstantIndicator), ErrConstantIndicator, IsConstantIndicator},
		{"malformed observation", NewMalformedObservationError("abc", "missing coordinate"), ErrMalformedObservation, IsMalformedObservation},
	}

	for _, test := range tests {
		if !errors.Is(test.err, test.sentinel) {
			t.Errorf("%s: errors.Is failed for %v", test.name, test.err)
		}
		if !test.check(test.err) {
			t.Errorf("%s: helper returned false for %v", test.name, test.err)
		}
	}
}

// TestIsFeatureScoped tests the run-fatal vs feature-scoped split
func TestIsFeatureScoped(t *testing.T) {
	featureScoped := []error{
		NewInsufficientSampleError(2, 6),
		NewDegenerateGeometryError(1, 2),
		ErrConstantIndicator,
		ErrDimensionMismatch,
	}
	for _, err := range featureScoped {
		if !IsFeatureScoped(err) {
			t.Errorf("Expected %v to be feature-scoped", err)
		}
	}

	if IsFeatureScoped(ErrEmptyInput) {
		t.Error("EmptyInput aborts the run, not a single feature")
	}
	if IsFeatureScoped(ErrMalformedObservation) {
		t.Error("MalformedObservation is recovered locally, not feature-scoped")
	}
}

// TestConstructorDetail tests that constructors embed useful context
func TestConstructorDetail(t *testing.T) {
	err := NewInsufficientSampleError(5, 6)
	want := "insufficient sample for analysis: n=5, minimum=6"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
