package app

import (
	"climent/domain/core"
	"climent/domain/entropy"
	"climent/domain/grid"
	"climent/internal"
	"climent/ports"
)

// EngineOptions configures one relative-entropy computation.
type EngineOptions struct {
	// AnomalyData marks the inputs as precomputed anomalies. When false,
	// both inputs are converted by subtracting the control climatology.
	AnomalyData bool
	// NEOFs is the number of retained components; 0 defaults to the
	// initialized ensemble's member count.
	NEOFs int
	// Curvilinear disables latitude weighting, for grids without a plain
	// latitude axis.
	Curvilinear bool
	// NTime is the number of lead steps to compute; 0 defaults to the full
	// time length. Rows beyond NTime stay unfilled.
	NTime int
}

// Engine orchestrates the relative-entropy computation: anomaly conversion,
// a single EOF fit on the stacked control, per-(init, lead) projection and
// Gaussian estimation, and the formula evaluation into a result table.
type Engine struct {
	newBackend func() ports.EOFBackend
	formula    *entropy.Formula
	log        *internal.Logger
}

// NewEngine creates an engine. A fresh backend is constructed per Compute
// call so that the EOF fit never leaks between runs.
func NewEngine(newBackend func() ports.EOFBackend) *Engine {
	return &Engine{
		newBackend: newBackend,
		formula:    entropy.NewFormula(),
		log:        internal.NewDefaultLogger("engine"),
	}
}

// Compute builds the lead-time x (component, initialization) table of
// relative entropy between the initialized ensemble and the control
// baseline. Time-axis labels are interpreted as lead steps; the table
// carries rows 1..time.size-1 and labels beyond that range are skipped.
func (e *Engine) Compute(initialized, control *grid.Field, opts EngineOptions) (*entropy.ResultTable, error) {
	runID := core.NewRunID()
	if err := grid.SameSpatialShape(initialized, control); err != nil {
		return nil, err
	}

	nmember := initialized.SizeOf(grid.AxisMember)
	length := initialized.SizeOf(grid.AxisTime)
	neofs := opts.NEOFs
	if neofs == 0 {
		neofs = nmember
	}
	if neofs < 1 || neofs > nmember {
		return nil, core.NewConfigurationError("neofs",
			"must be in [1, member count] for an invertible member covariance")
	}
	ntime := opts.NTime
	if ntime == 0 {
		ntime = length
	}
	if ntime < 1 || ntime > length {
		return nil, core.NewConfigurationError("ntime", "outside the available lead range")
	}

	anomX, anomB := initialized, control
	if !opts.AnomalyData {
		// Both sides share the control climatology as reference. Reducing
		// over all non-spatial axes keeps the subtraction valid when the
		// control carries a different member count, e.g. an enlarged
		// control distribution.
		cmean, err := control.Climatology()
		if err != nil {
			return nil, err
		}
		if anomX, err = initialized.Sub(cmean); err != nil {
			return nil, err
		}
		if anomB, err = control.Sub(cmean); err != nil {
			return nil, err
		}
	}

	var weights []float64
	if !opts.Curvilinear {
		weights = grid.LatWeights(anomX)
		if weights == nil {
			return nil, core.NewConfigurationError("curvilinear",
				"no latitude axis found; set Curvilinear for point-axis grids")
		}
	}

	stacked, err := anomB.Stack(grid.AxisSample, grid.AxisMember, grid.AxisInit)
	if err != nil {
		return nil, err
	}
	backend := e.newBackend()
	if err := backend.Fit(stacked, weights); err != nil {
		return nil, err
	}

	inits := initialized.Labels(grid.AxisInit)
	builder := entropy.NewTableBuilder(length, inits)
	leadLabels := initialized.Labels(grid.AxisTime)[:ntime]

	for _, init := range inits {
		for _, lead := range leadLabels {
			gx, err := e.sliceGaussian(backend, anomX, init, lead, neofs)
			if err != nil {
				return nil, err
			}
			gb, err := e.sliceGaussian(backend, anomB, init, lead, neofs)
			if err != nil {
				return nil, err
			}
			res, err := e.formula.Compute(gb.Cov, gx.Cov, gx.Mean, gb.Mean, neofs)
			if err != nil {
				return nil, err
			}
			step := int(lead)
			if step < 1 || step >= length {
				// Lead label outside the table's 1..T-1 rows.
				continue
			}
			if err := builder.Set(step, entropy.ComponentR, init, res.R); err != nil {
				return nil, err
			}
			if err := builder.Set(step, entropy.ComponentS, init, res.Signal); err != nil {
				return nil, err
			}
			if err := builder.Set(step, entropy.ComponentD, init, res.Dispersion); err != nil {
				return nil, err
			}
		}
	}

	table := builder.Build()
	e.log.Debug("run %s: %d inits x %d leads, neofs=%d, fingerprint=%s",
		runID, len(inits), ntime, neofs, table.Fingerprint())
	return table, nil
}

// sliceGaussian projects one (init, lead) anomaly slice onto the fitted
// EOFs and estimates its member-axis Gaussian.
func (e *Engine) sliceGaussian(backend ports.EOFBackend, anom *grid.Field, init, lead float64, neofs int) (entropy.Gaussian, error) {
	slice, err := anom.Sel(grid.AxisInit, init)
	if err != nil {
		return entropy.Gaussian{}, err
	}
	if slice, err = slice.Sel(grid.AxisTime, lead); err != nil {
		return entropy.Gaussian{}, err
	}
	if slice, err = slice.Rename(grid.AxisMember, grid.AxisSample); err != nil {
		return entropy.Gaussian{}, err
	}
	pcs, err := backend.Project(slice, neofs, ports.ScalingNone, false)
	if err != nil {
		return entropy.Gaussian{}, err
	}
	return entropy.EstimateGaussian(pcs)
}
