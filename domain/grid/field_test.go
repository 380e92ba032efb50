package grid

import (
	"errors"
	"math"
	"strings"
	"testing"

	"climent/domain/core"
)

func mustField(t *testing.T, axes []Axis, data []float64) *Field {
	t.Helper()
	f, err := New(axes, data)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestField_SelDropsAxis(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisTime, Labels: []float64{10, 20, 30}},
		{Name: AxisY, Labels: []float64{0, 1}},
	}, []float64{
		1, 2,
		3, 4,
		5, 6,
	})

	s, err := f.Sel(AxisTime, 20)
	if err != nil {
		t.Fatalf("Sel failed: %v", err)
	}
	if s.HasAxis(AxisTime) {
		t.Error("selected axis should be dropped")
	}
	got := s.Values()
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("Sel picked wrong slice: %v", got)
	}

	if _, err := f.Sel(AxisTime, 99); !errors.Is(err, core.ErrLabelNotFound) {
		t.Errorf("expected label-not-found, got %v", err)
	}
	if _, err := f.Sel("nope", 10); err == nil {
		t.Error("expected error for missing axis")
	}
}

func TestField_SelInnerAxis(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisTime, Labels: []float64{0, 1}},
		{Name: AxisY, Labels: []float64{0, 1, 2}},
	}, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	s, err := f.Sel(AxisY, 1)
	if err != nil {
		t.Fatalf("Sel failed: %v", err)
	}
	got := s.Values()
	if got[0] != 2 || got[1] != 5 {
		t.Errorf("inner-axis Sel wrong: %v", got)
	}
}

func TestField_StackMergesAxes(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisMember, Labels: []float64{0, 1}},
		{Name: AxisInit, Labels: []float64{1990, 1991, 1992}},
		{Name: AxisY, Labels: []float64{0}},
	}, []float64{1, 2, 3, 4, 5, 6})

	s, err := f.Stack(AxisSample, AxisMember, AxisInit)
	if err != nil {
		t.Fatalf("Stack failed: %v", err)
	}
	if s.SizeOf(AxisSample) != 6 {
		t.Errorf("stacked size = %d, want 6", s.SizeOf(AxisSample))
	}
	if s.SizeOf(AxisY) != 1 {
		t.Error("remaining axis lost by Stack")
	}
	// Row-major order over (member, init) must be preserved.
	want := []float64{1, 2, 3, 4, 5, 6}
	got := s.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stacked order wrong at %d: got %v want %v", i, got, want)
		}
	}
}

func TestConcat_AlongMember(t *testing.T) {
	axes := []Axis{
		{Name: AxisMember, Labels: []float64{0, 1}},
		{Name: AxisY, Labels: []float64{0, 1}},
	}
	a := mustField(t, axes, []float64{1, 2, 3, 4})
	b := mustField(t, axes, []float64{5, 6, 7, 8})

	j, err := Concat(AxisMember, a, b)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if j.SizeOf(AxisMember) != 4 {
		t.Errorf("member size = %d, want 4", j.SizeOf(AxisMember))
	}
	if j.SizeOf(AxisY) != 2 {
		t.Errorf("y size = %d, want 2", j.SizeOf(AxisY))
	}

	mismatched := mustField(t, []Axis{
		{Name: AxisMember, Labels: []float64{0}},
		{Name: AxisY, Labels: []float64{0, 1, 2}},
	}, []float64{1, 2, 3})
	if _, err := Concat(AxisMember, a, mismatched); !core.IsDimensionMismatchError(err) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestField_MeanOver(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisTime, Labels: []float64{0, 1}},
		{Name: AxisY, Labels: []float64{0, 1}},
	}, []float64{
		1, 2,
		3, 6,
	})
	m, err := f.MeanOver(AxisTime)
	if err != nil {
		t.Fatalf("MeanOver failed: %v", err)
	}
	got := m.Values()
	if got[0] != 2 || got[1] != 4 {
		t.Errorf("mean = %v, want [2 4]", got)
	}
}

func TestField_SubBroadcasts(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisTime, Labels: []float64{0, 1}},
		{Name: AxisY, Labels: []float64{0, 1}},
	}, []float64{
		1, 2,
		3, 6,
	})
	clim := mustField(t, []Axis{
		{Name: AxisY, Labels: []float64{0, 1}},
	}, []float64{1, 2})

	anom, err := f.Sub(clim)
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	want := []float64{0, 0, 2, 4}
	got := anom.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("anomaly = %v, want %v", got, want)
		}
	}
}

func TestField_SubAxisSizeMismatchNamesAxis(t *testing.T) {
	f := Zeros([]Axis{
		{Name: AxisMember, Labels: RangeLabels(5)},
		{Name: AxisY, Labels: []float64{0, 1}},
	})
	other := Zeros([]Axis{
		{Name: AxisMember, Labels: RangeLabels(20)},
		{Name: AxisY, Labels: []float64{0, 1}},
	})
	_, err := f.Sub(other)
	if !core.IsDimensionMismatchError(err) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `axis "member"`) {
		t.Errorf("error should name the member axis: %v", err)
	}
}

func TestField_ClimatologyReducesNonSpatialAxes(t *testing.T) {
	f := mustField(t, []Axis{
		{Name: AxisMember, Labels: []float64{0, 1}},
		{Name: AxisTime, Labels: []float64{1, 2}},
		{Name: AxisY, Labels: []float64{0, 1}},
	}, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})
	clim, err := f.Climatology()
	if err != nil {
		t.Fatalf("Climatology failed: %v", err)
	}
	if got := clim.Axes(); len(got) != 1 || got[0].Name != AxisY {
		t.Fatalf("climatology axes = %v, want only y", got)
	}
	got := clim.Values()
	if got[0] != 4 || got[1] != 5 {
		t.Errorf("climatology = %v, want [4 5]", got)
	}

	// The reduced field broadcasts against ensembles of any member count.
	wide := Zeros([]Axis{
		{Name: AxisMember, Labels: RangeLabels(7)},
		{Name: AxisTime, Labels: []float64{1, 2, 3}},
		{Name: AxisY, Labels: []float64{0, 1}},
	})
	if _, err := wide.Sub(clim); err != nil {
		t.Fatalf("broadcast Sub failed: %v", err)
	}
}

func TestField_SampleMatrixShape(t *testing.T) {
	f := Zeros([]Axis{
		{Name: AxisSample, Labels: RangeLabels(4)},
		{Name: AxisY, Labels: []float64{0, 1}},
		{Name: AxisX, Labels: []float64{0, 1, 2}},
	})
	m := f.SampleMatrix()
	r, c := m.Dims()
	if r != 4 || c != 6 {
		t.Errorf("sample matrix %dx%d, want 4x6", r, c)
	}
}

func TestLatWeights(t *testing.T) {
	f := Zeros([]Axis{
		{Name: AxisTime, Labels: RangeLabels(1)},
		{Name: AxisY, Labels: []float64{0, 60}},
		{Name: AxisX, Labels: RangeLabels(3)},
	})
	w := LatWeights(f)
	if len(w) != 6 {
		t.Fatalf("weight count = %d, want 6", len(w))
	}
	if math.Abs(w[0]-1) > 1e-12 {
		t.Errorf("equator weight = %v, want 1", w[0])
	}
	want60 := math.Sqrt(0.5)
	for i := 3; i < 6; i++ {
		if math.Abs(w[i]-want60) > 1e-12 {
			t.Errorf("60N weight = %v, want %v", w[i], want60)
		}
	}

	curv := Zeros([]Axis{
		{Name: AxisTime, Labels: RangeLabels(1)},
		{Name: AxisPoint, Labels: RangeLabels(4)},
	})
	if LatWeights(curv) != nil {
		t.Error("curvilinear grid should have no latitude weights")
	}
}
