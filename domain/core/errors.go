package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInsufficientControlLength = errors.New("control series shorter than required window")
	ErrDimensionMismatch         = errors.New("dimension mismatch")
	ErrAxisNotFound              = errors.New("axis not found")
	ErrLabelNotFound             = errors.New("axis label not found")

	// Numeric errors
	ErrSingularCovariance = errors.New("singular or ill-conditioned covariance matrix")

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")
)

// Stage identifies where in the pipeline an error was detected.
type Stage string

const (
	StageGeneration Stage = "generation"
	StageProjection Stage = "projection"
	StageCovariance Stage = "covariance"
	StageFormula    Stage = "formula"
)

// Error constructors with context
func NewInsufficientControlLengthError(have, need int) error {
	return fmt.Errorf("%w: control has %d timesteps, window needs %d",
		ErrInsufficientControlLength, have, need)
}

func NewDimensionMismatchError(stage Stage, want, got []int) error {
	return fmt.Errorf("%w at %s stage: want %v, got %v", ErrDimensionMismatch, stage, want, got)
}

// NewAxisSizeMismatchError names the offending axis when two fields disagree
// on a single axis size.
func NewAxisSizeMismatchError(axis string, want, got int) error {
	return fmt.Errorf("%w: axis %q: want size %d, got %d", ErrDimensionMismatch, axis, want, got)
}

func NewSpatialShapeMismatchError(want, got []int) error {
	return fmt.Errorf("%w: spatial shape want %v, got %v", ErrDimensionMismatch, want, got)
}

func NewSingularCovarianceError(stage Stage, dim int, detail string) error {
	return fmt.Errorf("%w at %s stage (%dx%d): %s", ErrSingularCovariance, stage, dim, dim, detail)
}

func NewConfigurationError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewAxisNotFoundError(axis string) error {
	return fmt.Errorf("%w: %q", ErrAxisNotFound, axis)
}

func NewLabelNotFoundError(axis string, label float64) error {
	return fmt.Errorf("%w: %v on axis %q", ErrLabelNotFound, label, axis)
}

// Error checking helpers
func IsInsufficientControlLengthError(err error) bool {
	return errors.Is(err, ErrInsufficientControlLength)
}

func IsDimensionMismatchError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

func IsSingularCovarianceError(err error) bool {
	return errors.Is(err, ErrSingularCovariance)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
