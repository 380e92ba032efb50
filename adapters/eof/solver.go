// Package eof implements the EOFBackend port with a gonum SVD
// decomposition, standing in for a dedicated EOF/PCA solver library.
package eof

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"climent/domain/core"
	"climent/domain/grid"
	"climent/ports"
)

// Solver fits an EOF basis by thin SVD of the centred (and optionally
// latitude-weighted) sample matrix. It satisfies ports.EOFBackend.
type Solver struct {
	fitted   bool
	npoints  int
	nsamples int
	weights  []float64
	basis    *mat.Dense // npoints x rank, right singular vectors
	singular []float64
}

// NewSolver creates an unfitted solver.
func NewSolver() *Solver {
	return &Solver{}
}

// Fit decomposes the stacked field. Every non-spatial axis is treated as
// part of the sample dimension; weights, when non-nil, are per flattened
// spatial point.
func (s *Solver) Fit(stacked *grid.Field, weights []float64) error {
	x := stacked.SampleMatrix()
	n, p := x.Dims()
	if weights != nil && len(weights) != p {
		return core.NewDimensionMismatchError(core.StageProjection, []int{p}, []int{len(weights)})
	}
	if n < 2 {
		return core.NewSingularCovarianceError(core.StageProjection, p,
			fmt.Sprintf("need at least 2 samples to fit EOFs, got %d", n))
	}

	a := mat.NewDense(n, p, nil)
	a.Copy(x)
	if weights != nil {
		for j := 0; j < p; j++ {
			for i := 0; i < n; i++ {
				a.Set(i, j, a.At(i, j)*weights[j])
			}
		}
	}
	// Centre each spatial point over the sample dimension.
	for j := 0; j < p; j++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += a.At(i, j)
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			a.Set(i, j, a.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return core.NewSingularCovarianceError(core.StageProjection, p,
			"SVD of the stacked anomaly matrix failed to converge")
	}
	var v mat.Dense
	svd.VTo(&v)

	s.npoints = p
	s.nsamples = n
	s.weights = weights
	s.basis = &v
	s.singular = svd.Values(nil)
	s.fitted = true
	return nil
}

// Rank returns the number of resolvable components of the fitted basis.
func (s *Solver) Rank() int {
	if !s.fitted {
		return 0
	}
	_, k := s.basis.Dims()
	return k
}

// Project returns the field's per-sample coordinates (samples x neofs) in
// the fitted basis. The field is expected to hold anomalies sharing the
// fit's reference climatology; with weighted=false it is projected as-is.
func (s *Solver) Project(field *grid.Field, neofs int, scaling ports.Scaling, weighted bool) (*mat.Dense, error) {
	if !s.fitted {
		return nil, core.NewConfigurationError("eof", "Project called before Fit")
	}
	if neofs < 1 || neofs > s.Rank() {
		return nil, core.NewConfigurationError("neofs",
			fmt.Sprintf("%d outside resolvable range [1,%d]", neofs, s.Rank()))
	}
	y := field.SampleMatrix()
	m, p := y.Dims()
	if p != s.npoints {
		return nil, core.NewDimensionMismatchError(core.StageProjection,
			[]int{s.npoints}, []int{p})
	}

	proj := mat.NewDense(m, p, nil)
	proj.Copy(y)
	if weighted && s.weights != nil {
		for j := 0; j < p; j++ {
			for i := 0; i < m; i++ {
				proj.Set(i, j, proj.At(i, j)*s.weights[j])
			}
		}
	}

	sub := s.basis.Slice(0, p, 0, neofs)
	pcs := mat.NewDense(m, neofs, nil)
	pcs.Mul(proj, sub)

	if scaling == ports.ScalingUnitVariance {
		for j := 0; j < neofs; j++ {
			std := s.singular[j] / math.Sqrt(float64(s.nsamples-1))
			if std == 0 {
				continue
			}
			for i := 0; i < m; i++ {
				pcs.Set(i, j, pcs.At(i, j)/std)
			}
		}
	}
	return pcs, nil
}
