// Package testkit generates synthetic gridded climate data for tests and
// the demo CLI, with seeded randomness throughout.
package testkit

import (
	"math"
	"math/rand"

	"climent/domain/grid"
)

// LatLabels spreads ny latitudes evenly over [-60, 60] degrees.
func LatLabels(ny int) []float64 {
	if ny == 1 {
		return []float64{0}
	}
	ls := make([]float64, ny)
	for i := range ls {
		ls[i] = -60 + 120*float64(i)/float64(ny-1)
	}
	return ls
}

func spatialPattern(yi, xi, ny, nx int) float64 {
	return math.Sin(math.Pi*float64(yi+1)/float64(ny+1)) *
		math.Cos(2*math.Pi*float64(xi)/float64(nx))
}

// SyntheticControl builds a control series (time, y, x) as a fixed spatial
// pattern modulated by a slow oscillation plus white noise.
func SyntheticControl(ntime, ny, nx int, seed int64) *grid.Field {
	rng := rand.New(rand.NewSource(seed))
	axes := []grid.Axis{
		{Name: grid.AxisTime, Labels: grid.RangeLabels(ntime)},
		{Name: grid.AxisY, Labels: LatLabels(ny)},
		{Name: grid.AxisX, Labels: grid.RangeLabels(nx)},
	}
	f := grid.Zeros(axes)
	data := f.Values()
	idx := 0
	for t := 0; t < ntime; t++ {
		phase := math.Sin(2 * math.Pi * float64(t) / 20.0)
		for yi := 0; yi < ny; yi++ {
			for xi := 0; xi < nx; xi++ {
				data[idx] = spatialPattern(yi, xi, ny, nx)*(1+0.3*phase) + 0.5*rng.NormFloat64()
				idx++
			}
		}
	}
	return f
}

// SyntheticEnsemble builds an initialized ensemble (init, member, time, y, x)
// with control-like statistics plus a lead-dependent mean drift, so that the
// forecast distribution diverges from the control baseline as lead grows.
// Time labels are lead steps 1..ntime.
func SyntheticEnsemble(ninit, nmember, ntime, ny, nx int, seed int64, drift float64) *grid.Field {
	rng := rand.New(rand.NewSource(seed))
	initLabels := make([]float64, ninit)
	for i := range initLabels {
		initLabels[i] = float64(1990 + i)
	}
	timeLabels := make([]float64, ntime)
	for t := range timeLabels {
		timeLabels[t] = float64(t + 1)
	}
	axes := []grid.Axis{
		{Name: grid.AxisInit, Labels: initLabels},
		{Name: grid.AxisMember, Labels: grid.RangeLabels(nmember)},
		{Name: grid.AxisTime, Labels: timeLabels},
		{Name: grid.AxisY, Labels: LatLabels(ny)},
		{Name: grid.AxisX, Labels: grid.RangeLabels(nx)},
	}
	f := grid.Zeros(axes)
	data := f.Values()
	idx := 0
	for i := 0; i < ninit; i++ {
		for m := 0; m < nmember; m++ {
			for t := 0; t < ntime; t++ {
				shift := drift * float64(t+1)
				for yi := 0; yi < ny; yi++ {
					for xi := 0; xi < nx; xi++ {
						data[idx] = spatialPattern(yi, xi, ny, nx) + shift + 0.5*rng.NormFloat64()
						idx++
					}
				}
			}
		}
	}
	return f
}
