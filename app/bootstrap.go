package app

import (
	"math"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"climent/domain/core"
	"climent/domain/entropy"
	"climent/domain/grid"
	"climent/internal"
	"climent/ports"
)

// BootstrapOptions configures the significance-threshold bootstrap.
type BootstrapOptions struct {
	// Sig is the percentile of the pooled null distribution, in (0,100).
	Sig float64
	// Bootstrap is the requested number of bootstrap draws.
	Bootstrap int
	// Engine options are forwarded to every null-round computation.
	Engine EngineOptions
}

// DefaultBootstrapOptions mirrors the conventional 95th percentile over 100
// draws.
func DefaultBootstrapOptions() BootstrapOptions {
	return BootstrapOptions{Sig: 95, Bootstrap: 100}
}

// Bootstrap derives a per-component significance threshold by running the
// engine on pseudo ensembles resampled from the control and pooling the
// resulting null relative-entropy samples.
type Bootstrap struct {
	engine *Engine
	rng    ports.RNG
	log    *internal.Logger
}

// NewBootstrap creates a bootstrap driver. The RNG port supplies one
// independent stream per round, keeping seeded runs reproducible even when
// rounds execute concurrently.
func NewBootstrap(engine *Engine, rng ports.RNG) *Bootstrap {
	return &Bootstrap{
		engine: engine,
		rng:    rng,
		log:    internal.NewDefaultLogger("bootstrap"),
	}
}

// Rounds returns the number of independent resampling rounds for a
// requested draw count: max(1, floor(bootstrap/timeSize)). One round
// already yields timeSize-1 lead samples per initialization, so the draw
// count is amortized over the lead dimension. A deliberate approximation,
// coarser than a per-sample bootstrap.
func Rounds(bootstrap, timeSize int) int {
	r := bootstrap / timeSize
	if r < 1 {
		return 1
	}
	return r
}

// Threshold computes, per component, the Sig-percentile of the pooled null
// samples. control is the resampling pool (a long control series); baseline
// is the control distribution the engine compares each null ensemble
// against. Any single round's failure aborts the whole bootstrap.
func (b *Bootstrap) Threshold(initialized, control, baseline *grid.Field, opts BootstrapOptions) (entropy.Threshold, error) {
	if opts.Sig <= 0 || opts.Sig >= 100 {
		return nil, core.NewConfigurationError("sig", "must be inside (0,100)")
	}
	if opts.Bootstrap < 1 {
		return nil, core.NewConfigurationError("bootstrap", "must be at least 1")
	}

	id := core.NewBootstrapID()
	timeSize := initialized.SizeOf(grid.AxisTime)
	rounds := Rounds(opts.Bootstrap, timeSize)
	if opts.Bootstrap < timeSize {
		b.log.Warn("%s: bootstrap=%d < time length %d collapses to a single round",
			id, opts.Bootstrap, timeSize)
	}

	tables := make([]*entropy.ResultTable, rounds)
	var eg errgroup.Group
	for r := 0; r < rounds; r++ {
		r := r
		eg.Go(func() error {
			gen := NewPseudoEnsembleGenerator(b.rng.Stream("bootstrap", r))
			pseudo, err := gen.Generate(initialized, control)
			if err != nil {
				return err
			}
			table, err := b.engine.Compute(pseudo, baseline, opts.Engine)
			if err != nil {
				return err
			}
			tables[r] = table
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	threshold := make(entropy.Threshold, 3)
	for _, c := range entropy.Components() {
		var pooled []float64
		for _, t := range tables {
			pooled = append(pooled, t.ComponentValues(c)...)
		}
		q, err := stats.Percentile(pooled, opts.Sig)
		if err != nil || math.IsNaN(q) {
			return nil, core.NewConfigurationError("bootstrap",
				"null distribution is empty; increase lead length or rounds")
		}
		threshold[c] = q
	}
	b.log.Info("%s: %d rounds pooled, sig=%.1f, R=%.4g S=%.4g D=%.4g", id, rounds,
		opts.Sig, threshold[entropy.ComponentR], threshold[entropy.ComponentS],
		threshold[entropy.ComponentD])
	return threshold, nil
}
