package entropy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"climent/domain/core"
)

// DefaultMaxCond is the condition-number ceiling above which a baseline
// covariance is treated as rank deficient.
const DefaultMaxCond = 1e12

// FormulaResult holds the relative entropy and its decomposition, per
// Branstator and Teng (2010) and Kleeman (2002).
type FormulaResult struct {
	R          float64
	Dispersion float64
	Signal     float64
}

// Formula evaluates the relative-entropy decomposition between two Gaussian
// approximations in the reduced EOF subspace.
type Formula struct {
	// MaxCond bounds the acceptable condition number of the baseline
	// covariance before the solve is rejected as rank deficient.
	MaxCond float64
}

// NewFormula creates a formula evaluator with the default tolerance.
func NewFormula() *Formula {
	return &Formula{MaxCond: DefaultMaxCond}
}

// Compute evaluates
//
//	dispersion = 0.5 (ln det(sigmaB)/det(sigmaX) + tr(sigmaX sigmaB^-1) - neofs)
//	signal     = 0.5 (muX - muB)^T sigmaB^-1 (muX - muB)
//	R          = dispersion + signal
//
// The inverse of sigmaB is never formed: both the trace term and the signal
// quadratic form go through Cholesky solves, and the determinant ratio is a
// difference of log determinants.
func (f *Formula) Compute(sigmaB, sigmaX *mat.SymDense, muX, muB []float64, neofs int) (FormulaResult, error) {
	if sigmaB.SymmetricDim() != neofs || sigmaX.SymmetricDim() != neofs {
		return FormulaResult{}, core.NewDimensionMismatchError(core.StageFormula,
			[]int{neofs, neofs}, []int{sigmaB.SymmetricDim(), sigmaX.SymmetricDim()})
	}
	if len(muX) != neofs || len(muB) != neofs {
		return FormulaResult{}, core.NewDimensionMismatchError(core.StageFormula,
			[]int{neofs}, []int{len(muX), len(muB)})
	}

	var cholB mat.Cholesky
	if !cholB.Factorize(sigmaB) {
		return FormulaResult{}, core.NewSingularCovarianceError(core.StageFormula, neofs,
			"baseline covariance is not positive definite")
	}
	if cond := cholB.Cond(); cond > f.MaxCond {
		return FormulaResult{}, core.NewSingularCovarianceError(core.StageFormula, neofs,
			fmt.Sprintf("baseline covariance condition number %.3g exceeds %.3g", cond, f.MaxCond))
	}
	var cholX mat.Cholesky
	if !cholX.Factorize(sigmaX) {
		return FormulaResult{}, core.NewSingularCovarianceError(core.StageFormula, neofs,
			"forecast covariance is not positive definite")
	}

	// tr(sigmaX sigmaB^-1) = tr(Y) where sigmaB Y = sigmaX.
	var y mat.Dense
	if err := cholB.SolveTo(&y, sigmaX); err != nil {
		return FormulaResult{}, core.NewSingularCovarianceError(core.StageFormula, neofs, err.Error())
	}
	dispersion := 0.5 * (cholB.LogDet() - cholX.LogDet() + mat.Trace(&y) - float64(neofs))

	d := make([]float64, neofs)
	for i := range d {
		d[i] = muX[i] - muB[i]
	}
	dv := mat.NewVecDense(neofs, d)
	var z mat.VecDense
	if err := cholB.SolveVecTo(&z, dv); err != nil {
		return FormulaResult{}, core.NewSingularCovarianceError(core.StageFormula, neofs, err.Error())
	}
	signal := 0.5 * mat.Dot(dv, &z)

	return FormulaResult{
		R:          dispersion + signal,
		Dispersion: dispersion,
		Signal:     signal,
	}, nil
}
