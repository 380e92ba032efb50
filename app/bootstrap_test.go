package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"climent/domain/core"
	"climent/domain/entropy"
	"climent/internal/testkit"
	"climent/ports"
)

func TestRounds(t *testing.T) {
	cases := []struct {
		bootstrap, timeSize, want int
	}{
		{100, 10, 10},
		{100, 4, 25},
		{7, 4, 1},
		{8, 4, 2},
		{1, 1, 1},
		{3, 10, 1}, // collapses to a single round
	}
	for _, c := range cases {
		if got := Rounds(c.bootstrap, c.timeSize); got != c.want {
			t.Errorf("Rounds(%d,%d) = %d, want %d", c.bootstrap, c.timeSize, got, c.want)
		}
	}
}

func TestBootstrap_OptionValidation(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(1, 4, 3, 3, 3, 81, 0)
	control := testkit.SyntheticControl(40, 3, 3, 82)
	baseline := testkit.SyntheticEnsemble(1, 4, 3, 3, 3, 83, 0)
	boot := NewBootstrap(newTestEngine(), ports.NewSeededRNG(1))

	for _, sig := range []float64{0, -5, 100, 120} {
		opts := DefaultBootstrapOptions()
		opts.Sig = sig
		_, err := boot.Threshold(initialized, control, baseline, opts)
		require.Truef(t, core.IsConfigurationError(err), "sig=%v: got %v", sig, err)
	}

	opts := DefaultBootstrapOptions()
	opts.Bootstrap = 0
	_, err := boot.Threshold(initialized, control, baseline, opts)
	require.True(t, core.IsConfigurationError(err))
}

func TestBootstrap_ThresholdFromNullDistribution(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 91, 0.1)
	control := testkit.SyntheticControl(80, 3, 3, 92)
	baseline := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 93, 0)

	boot := NewBootstrap(newTestEngine(), ports.NewSeededRNG(7))
	opts := BootstrapOptions{
		Sig:       95,
		Bootstrap: 12, // 3 rounds at time length 4
		Engine:    EngineOptions{AnomalyData: true, NEOFs: 2},
	}
	threshold, err := boot.Threshold(initialized, control, baseline, opts)
	require.NoError(t, err)

	for _, c := range entropy.Components() {
		v, ok := threshold[c]
		require.Truef(t, ok, "missing component %s", c)
		require.Greaterf(t, v, 0.0, "null %s quantile should be positive", c)
	}

	// Seeded bootstraps reproduce their thresholds exactly.
	again, err := NewBootstrap(newTestEngine(), ports.NewSeededRNG(7)).
		Threshold(initialized, control, baseline, opts)
	require.NoError(t, err)
	require.Equal(t, threshold, again)
}

func TestBootstrap_FullPipelineWithEnlargedControl(t *testing.T) {
	// The full chain as the CLI wires it: resample an enlarged control
	// distribution from the series, compute the table on raw data, then
	// bootstrap a threshold against that same distribution.
	initialized := testkit.SyntheticEnsemble(2, 5, 4, 3, 3, 101, 0.1)
	series := testkit.SyntheticControl(120, 3, 3, 102)

	gen := NewPseudoEnsembleGenerator(rand.New(rand.NewSource(103)))
	enlarged, err := gen.GenerateRepeated(initialized, series, 4)
	require.NoError(t, err)

	engineOpts := EngineOptions{NEOFs: 3}
	table, err := newTestEngine().Compute(initialized, enlarged, engineOpts)
	require.NoError(t, err)
	for _, c := range entropy.Components() {
		require.NotEmptyf(t, table.ComponentValues(c), "component %s has no finite cells", c)
	}

	boot := NewBootstrap(newTestEngine(), ports.NewSeededRNG(104))
	threshold, err := boot.Threshold(initialized, series, enlarged, BootstrapOptions{
		Sig:       95,
		Bootstrap: 8, // 2 rounds at time length 4
		Engine:    engineOpts,
	})
	require.NoError(t, err)
	for _, c := range entropy.Components() {
		require.Greaterf(t, threshold[c], 0.0, "null %s quantile should be positive", c)
	}
}

func TestBootstrap_RoundFailureAborts(t *testing.T) {
	initialized := testkit.SyntheticEnsemble(1, 4, 10, 3, 3, 95, 0)
	shortControl := testkit.SyntheticControl(5, 3, 3, 96)
	baseline := testkit.SyntheticEnsemble(1, 4, 10, 3, 3, 97, 0)

	boot := NewBootstrap(newTestEngine(), ports.NewSeededRNG(2))
	_, err := boot.Threshold(initialized, shortControl, baseline, DefaultBootstrapOptions())
	require.True(t, core.IsInsufficientControlLengthError(err), "got %v", err)
}
