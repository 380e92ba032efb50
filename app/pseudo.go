package app

import (
	"math/rand"

	"climent/domain/core"
	"climent/domain/grid"
)

// PseudoEnsembleGenerator synthesizes ensembles shaped like a reference
// initialized ensemble by resampling contiguous windows from a long control
// series. Used both to enlarge the control baseline and to build
// null-hypothesis ensembles for bootstrapping.
type PseudoEnsembleGenerator struct {
	rng *rand.Rand
}

// NewPseudoEnsembleGenerator creates a generator drawing from the given
// random source. Callers control reproducibility through the source's seed.
func NewPseudoEnsembleGenerator(rng *rand.Rand) *PseudoEnsembleGenerator {
	return &PseudoEnsembleGenerator{rng: rng}
}

// Generate produces one resampling round shaped like reference: for each
// (init, member) pair one contiguous window of control of length
// reference.time.size, starting at an independent uniform draw from
// [0, L-ntime] inclusive.
func (g *PseudoEnsembleGenerator) Generate(reference, control *grid.Field) (*grid.Field, error) {
	ntime := reference.SizeOf(grid.AxisTime)
	l := control.SizeOf(grid.AxisTime)
	if l < ntime {
		return nil, core.NewInsufficientControlLengthError(l, ntime)
	}
	if err := grid.SameSpatialShape(reference, control); err != nil {
		return nil, err
	}

	ninit := reference.SizeOf(grid.AxisInit)
	nmember := reference.SizeOf(grid.AxisMember)
	npoints := control.SpatialSize()

	spatialAxes := make([]grid.Axis, 0, 2)
	for _, ax := range control.Axes() {
		if ax.Name != grid.AxisTime {
			spatialAxes = append(spatialAxes, ax)
		}
	}
	axes := make([]grid.Axis, 0, 3+len(spatialAxes))
	axes = append(axes,
		grid.Axis{Name: grid.AxisInit, Labels: reference.Labels(grid.AxisInit)},
		grid.Axis{Name: grid.AxisMember, Labels: reference.Labels(grid.AxisMember)},
		grid.Axis{Name: grid.AxisTime, Labels: reference.Labels(grid.AxisTime)},
	)
	axes = append(axes, spatialAxes...)
	out := grid.Zeros(axes)

	// Control windows are read through its samples-first layout: row t of
	// the sample matrix is the flattened spatial slice at timestep t.
	ctrl := control.SampleMatrix()
	data := out.Values()
	block := ntime * npoints
	for i := 0; i < ninit; i++ {
		for m := 0; m < nmember; m++ {
			start := g.rng.Intn(l - ntime + 1)
			dst := (i*nmember + m) * block
			for t := 0; t < ntime; t++ {
				copy(data[dst+t*npoints:dst+(t+1)*npoints], ctrl.RawRowView(start+t))
			}
		}
	}
	return out, nil
}

// GenerateRepeated concatenates rounds independent draws along the member
// axis, producing rounds x reference.member.size members with init labels
// copied from reference and a dense 0-based member index. This enlarged
// distribution serves as the control baseline for the main computation.
func (g *PseudoEnsembleGenerator) GenerateRepeated(reference, control *grid.Field, rounds int) (*grid.Field, error) {
	if rounds < 1 {
		return nil, core.NewConfigurationError("rounds", "must be at least 1")
	}
	parts := make([]*grid.Field, rounds)
	for r := 0; r < rounds; r++ {
		p, err := g.Generate(reference, control)
		if err != nil {
			return nil, err
		}
		parts[r] = p
	}
	joined, err := grid.Concat(grid.AxisMember, parts...)
	if err != nil {
		return nil, err
	}
	return joined.WithLabels(grid.AxisMember, grid.RangeLabels(joined.SizeOf(grid.AxisMember)))
}
