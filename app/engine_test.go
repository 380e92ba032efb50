package app

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"climent/adapters/eof"
	"climent/domain/core"
	"climent/domain/entropy"
	"climent/domain/grid"
	"climent/internal/testkit"
	"climent/ports"
)

func newTestEngine() *Engine {
	return NewEngine(func() ports.EOFBackend { return eof.NewSolver() })
}

func TestEngine_TableShapeAndFiniteness(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 21, 0.1)
	control := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 22, 0)

	table, err := newTestEngine().Compute(initialized, control, EngineOptions{
		AnomalyData: true,
		NEOFs:       2,
	})
	require.NoError(t, err)

	require.Equal(t, []int{1, 2, 3}, table.Leads())
	require.Equal(t, initialized.Labels(grid.AxisInit), table.Inits())
	for _, c := range entropy.Components() {
		for _, lead := range table.Leads() {
			for _, init := range table.Inits() {
				v := table.At(lead, c, init)
				require.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0),
					"cell (%d,%s,%v) not finite: %v", lead, c, init, v)
			}
		}
	}
}

func TestEngine_IdenticalInputsGiveZeroRelativeEntropy(t *testing.T) {
	field := testkit.SyntheticEnsemble(2, 6, 4, 3, 3, 31, 0)

	table, err := newTestEngine().Compute(field, field, EngineOptions{
		AnomalyData: true,
		NEOFs:       2,
	})
	require.NoError(t, err)

	for _, c := range entropy.Components() {
		for _, v := range table.ComponentValues(c) {
			require.InDeltaf(t, 0, v, 1e-7, "component %s should vanish for identical inputs", c)
		}
	}
}

func TestEngine_AnomalyConversionMatchesPrecomputed(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 41, 0.05)
	control := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 42, 0)

	cmean, err := control.Climatology()
	require.NoError(t, err)
	anomX, err := initialized.Sub(cmean)
	require.NoError(t, err)
	anomB, err := control.Sub(cmean)
	require.NoError(t, err)

	raw, err := newTestEngine().Compute(initialized, control, EngineOptions{NEOFs: 2})
	require.NoError(t, err)
	pre, err := newTestEngine().Compute(anomX, anomB, EngineOptions{AnomalyData: true, NEOFs: 2})
	require.NoError(t, err)

	require.Equal(t, raw.Fingerprint(), pre.Fingerprint(),
		"raw inputs with anomaly conversion must match precomputed anomalies")
}

func TestEngine_RawDataAcceptsEnlargedControl(t *testing.T) {
	// The member counts deliberately differ: the control baseline carries
	// 4x20 members from repeated resampling while the initialized ensemble
	// keeps 5. Anomaly conversion must still go through.
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 45, 0.1)
	series := testkit.SyntheticControl(60, 3, 3, 46)

	gen := NewPseudoEnsembleGenerator(rand.New(rand.NewSource(47)))
	enlarged, err := gen.GenerateRepeated(initialized, series, 4)
	require.NoError(t, err)
	require.Equal(t, 20, enlarged.SizeOf(grid.AxisMember))

	table, err := newTestEngine().Compute(initialized, enlarged, EngineOptions{NEOFs: 2})
	require.NoError(t, err)

	for _, c := range entropy.Components() {
		require.Lenf(t, table.ComponentValues(c), len(table.Leads())*len(table.Inits()),
			"component %s should fill every cell", c)
	}
}

func TestEngine_NTimeLeavesLaterRowsUnfilled(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(1, 5, 5, 3, 3, 51, 0.05)
	control := testkit.SyntheticEnsemble(1, 5, 5, 3, 3, 52, 0)

	table, err := newTestEngine().Compute(initialized, control, EngineOptions{
		AnomalyData: true,
		NEOFs:       2,
		NTime:       2,
	})
	require.NoError(t, err)

	init := table.Inits()[0]
	require.False(t, math.IsNaN(table.At(1, entropy.ComponentR, init)))
	require.False(t, math.IsNaN(table.At(2, entropy.ComponentR, init)))
	require.True(t, math.IsNaN(table.At(3, entropy.ComponentR, init)),
		"rows beyond NTime must stay unfilled")
	require.True(t, math.IsNaN(table.At(4, entropy.ComponentR, init)))
}

func TestEngine_CurvilinearSkipsWeighting(t *testing.T) {
	// Point-axis grids carry no latitude axis; they must compute with
	// Curvilinear set and fail without.
	initialized := pointEnsemble(t, 2, 5, 4, 9, 61)
	control := pointEnsemble(t, 2, 5, 4, 9, 62)

	_, err := newTestEngine().Compute(initialized, control, EngineOptions{
		AnomalyData: true,
		NEOFs:       2,
	})
	require.True(t, core.IsConfigurationError(err))

	_, err = newTestEngine().Compute(initialized, control, EngineOptions{
		AnomalyData: true,
		NEOFs:       2,
		Curvilinear: true,
	})
	require.NoError(t, err)
}

func TestEngine_InputValidation(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 71, 0)

	smaller := testkit.SyntheticEnsemble(2, 5, 4, 2, 3, 72, 0)
	_, err := newTestEngine().Compute(initialized, smaller, EngineOptions{AnomalyData: true})
	require.True(t, core.IsDimensionMismatchError(err), "got %v", err)

	control := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 73, 0)
	_, err = newTestEngine().Compute(initialized, control, EngineOptions{AnomalyData: true, NEOFs: 6})
	require.True(t, core.IsConfigurationError(err), "got %v", err)

	_, err = newTestEngine().Compute(initialized, control, EngineOptions{AnomalyData: true, NTime: 9})
	require.True(t, core.IsConfigurationError(err), "got %v", err)
}

// pointEnsemble builds an ensemble on a single curvilinear point axis.
func pointEnsemble(t *testing.T, ninit, nmember, ntime, npoints int, seed int64) *grid.Field {
	t.Helper()
	src := testkit.SyntheticEnsemble(ninit, nmember, ntime, 1, npoints, seed, 0.05)
	axes := make([]grid.Axis, 0, 4)
	for _, ax := range src.Axes() {
		switch ax.Name {
		case grid.AxisY:
			// drop the singleton latitude axis
		case grid.AxisX:
			axes = append(axes, grid.Axis{Name: grid.AxisPoint, Labels: ax.Labels})
		default:
			axes = append(axes, ax)
		}
	}
	f, err := grid.New(axes, src.Values())
	require.NoError(t, err)
	return f
}
