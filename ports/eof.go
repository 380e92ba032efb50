package ports

import (
	"gonum.org/v1/gonum/mat"

	"climent/domain/grid"
)

// Scaling selects how projected principal components are scaled.
type Scaling int

const (
	// ScalingNone returns unscaled projection coefficients.
	ScalingNone Scaling = iota
	// ScalingUnitVariance divides each component by its singular value.
	ScalingUnitVariance
)

// EOFBackend fits an empirical-orthogonal-function decomposition on a stack
// of spatial fields and projects new fields onto the leading components.
//
// Fit treats every non-spatial axis of the stacked field as part of the
// sample dimension. Weights, when non-nil, are per flattened spatial point
// and are applied before the decomposition.
type EOFBackend interface {
	Fit(stacked *grid.Field, weights []float64) error

	// Project returns per-sample coordinates (samples x neofs) of the field
	// in the fitted basis. With weighted=false the field is projected as-is,
	// without re-applying the fit weights.
	Project(field *grid.Field, neofs int, scaling Scaling, weighted bool) (*mat.Dense, error)
}
