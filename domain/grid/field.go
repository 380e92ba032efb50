package grid

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"climent/domain/core"
)

// Canonical axis names. Selection is always by axis name, never by position,
// so callers can carry fields with axes in any order.
const (
	AxisInit   = "init"
	AxisMember = "member"
	AxisTime   = "time"
	AxisSample = "sample"
	AxisY      = "y"
	AxisX      = "x"
	AxisPoint  = "point"
)

// Axis is one named dimension of a Field with per-index labels
// (years, lead steps, latitudes in degrees, ...).
type Axis struct {
	Name   string
	Labels []float64
}

// Size returns the number of entries along the axis.
func (a Axis) Size() int { return len(a.Labels) }

// Field is a labeled multi-dimensional float64 array: an ordered list of
// named axes over a flat row-major backing slice. It stands in for both
// gridded ensemble fields (init, member, time, spatial dims) and control
// series (time, spatial dims).
type Field struct {
	axes []Axis
	data []float64
}

// New constructs a Field from axes and row-major data.
func New(axes []Axis, data []float64) (*Field, error) {
	n := 1
	for _, ax := range axes {
		n *= ax.Size()
	}
	if n != len(data) {
		return nil, core.NewDimensionMismatchError(core.StageGeneration, []int{n}, []int{len(data)})
	}
	return &Field{axes: axes, data: data}, nil
}

// Zeros constructs a zero-filled Field with the given axes.
func Zeros(axes []Axis) *Field {
	n := 1
	for _, ax := range axes {
		n *= ax.Size()
	}
	return &Field{axes: axes, data: make([]float64, n)}
}

// RangeLabels returns dense labels 0..n-1, the default for member axes.
func RangeLabels(n int) []float64 {
	ls := make([]float64, n)
	for i := range ls {
		ls[i] = float64(i)
	}
	return ls
}

// Shape returns the axis sizes in axis order.
func (f *Field) Shape() []int {
	s := make([]int, len(f.axes))
	for i, ax := range f.axes {
		s[i] = ax.Size()
	}
	return s
}

// Axes returns a copy of the axis descriptors.
func (f *Field) Axes() []Axis {
	out := make([]Axis, len(f.axes))
	copy(out, f.axes)
	return out
}

// Values returns the raw backing data. Shared, not copied; treat as read-only.
func (f *Field) Values() []float64 { return f.data }

// HasAxis reports whether the field carries the named axis.
func (f *Field) HasAxis(name string) bool {
	_, ok := f.axisIndex(name)
	return ok
}

// SizeOf returns the length of the named axis, or 0 when absent.
func (f *Field) SizeOf(name string) int {
	i, ok := f.axisIndex(name)
	if !ok {
		return 0
	}
	return f.axes[i].Size()
}

// Labels returns the labels of the named axis, or nil when absent.
func (f *Field) Labels(name string) []float64 {
	i, ok := f.axisIndex(name)
	if !ok {
		return nil
	}
	return f.axes[i].Labels
}

func (f *Field) axisIndex(name string) (int, bool) {
	for i, ax := range f.axes {
		if ax.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (f *Field) strides() []int {
	st := make([]int, len(f.axes))
	acc := 1
	for i := len(f.axes) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= f.axes[i].Size()
	}
	return st
}

// labelIndex locates a label on an axis by exact value.
func (f *Field) labelIndex(axis string, label float64) (axIdx, pos int, err error) {
	i, ok := f.axisIndex(axis)
	if !ok {
		return 0, 0, core.NewAxisNotFoundError(axis)
	}
	for j, l := range f.axes[i].Labels {
		if l == label {
			return i, j, nil
		}
	}
	return 0, 0, core.NewLabelNotFoundError(axis, label)
}

// Isel selects one index along the named axis and drops the axis.
func (f *Field) Isel(axis string, idx int) (*Field, error) {
	ai, ok := f.axisIndex(axis)
	if !ok {
		return nil, core.NewAxisNotFoundError(axis)
	}
	if idx < 0 || idx >= f.axes[ai].Size() {
		return nil, core.NewLabelNotFoundError(axis, float64(idx))
	}
	st := f.strides()
	outAxes := make([]Axis, 0, len(f.axes)-1)
	for i, ax := range f.axes {
		if i != ai {
			outAxes = append(outAxes, ax)
		}
	}
	out := Zeros(outAxes)
	shape := f.Shape()
	outer := 1
	for i := 0; i < ai; i++ {
		outer *= shape[i]
	}
	inner := st[ai] // product of sizes after the selected axis
	for o := 0; o < outer; o++ {
		src := o*st[ai]*shape[ai] + idx*inner
		copy(out.data[o*inner:(o+1)*inner], f.data[src:src+inner])
	}
	return out, nil
}

// Sel selects by axis label and drops the axis.
func (f *Field) Sel(axis string, label float64) (*Field, error) {
	_, pos, err := f.labelIndex(axis, label)
	if err != nil {
		return nil, err
	}
	return f.Isel(axis, pos)
}

// Rename returns a view with one axis renamed.
func (f *Field) Rename(old, new string) (*Field, error) {
	i, ok := f.axisIndex(old)
	if !ok {
		return nil, core.NewAxisNotFoundError(old)
	}
	axes := f.Axes()
	axes[i].Name = new
	return &Field{axes: axes, data: f.data}, nil
}

// WithLabels returns a view with the named axis relabeled.
func (f *Field) WithLabels(axis string, labels []float64) (*Field, error) {
	i, ok := f.axisIndex(axis)
	if !ok {
		return nil, core.NewAxisNotFoundError(axis)
	}
	if len(labels) != f.axes[i].Size() {
		return nil, core.NewAxisSizeMismatchError(axis, f.axes[i].Size(), len(labels))
	}
	axes := f.Axes()
	axes[i].Labels = labels
	return &Field{axes: axes, data: f.data}, nil
}

// transpose reorders axes by perm (perm[i] = old index of new axis i).
func (f *Field) transpose(perm []int) *Field {
	outAxes := make([]Axis, len(perm))
	for i, p := range perm {
		outAxes[i] = f.axes[p]
	}
	out := Zeros(outAxes)
	srcSt := f.strides()
	shape := out.Shape()
	idx := make([]int, len(shape))
	for dst := 0; dst < len(out.data); dst++ {
		src := 0
		for i := range perm {
			src += idx[i] * srcSt[perm[i]]
		}
		out.data[dst] = f.data[src]
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

// Stack merges the named axes into one leading axis with dense 0-based
// labels, preserving the relative order of the remaining axes.
func (f *Field) Stack(newAxis string, axes ...string) (*Field, error) {
	perm := make([]int, 0, len(f.axes))
	stackSize := 1
	for _, name := range axes {
		i, ok := f.axisIndex(name)
		if !ok {
			return nil, core.NewAxisNotFoundError(name)
		}
		perm = append(perm, i)
		stackSize *= f.axes[i].Size()
	}
	nStacked := len(perm)
	for i := range f.axes {
		stacked := false
		for _, p := range perm[:nStacked] {
			if p == i {
				stacked = true
				break
			}
		}
		if !stacked {
			perm = append(perm, i)
		}
	}
	t := f.transpose(perm)
	outAxes := make([]Axis, 0, len(f.axes)-nStacked+1)
	outAxes = append(outAxes, Axis{Name: newAxis, Labels: RangeLabels(stackSize)})
	outAxes = append(outAxes, t.axes[nStacked:]...)
	return &Field{axes: outAxes, data: t.data}, nil
}

// Concat joins fields along an existing axis. All other axes must agree in
// name, order and size; axis labels are concatenated.
func Concat(axis string, fields ...*Field) (*Field, error) {
	if len(fields) == 0 {
		return nil, core.NewAxisNotFoundError(axis)
	}
	first := fields[0]
	ai, ok := first.axisIndex(axis)
	if !ok {
		return nil, core.NewAxisNotFoundError(axis)
	}
	// Move the concat axis to the front of every input so the backing
	// slices can be appended directly.
	perm := make([]int, 0, len(first.axes))
	perm = append(perm, ai)
	for i := range first.axes {
		if i != ai {
			perm = append(perm, i)
		}
	}
	total := 0
	labels := []float64{}
	parts := make([]*Field, len(fields))
	for i, f := range fields {
		if err := sameShapeExcept(first, f, axis); err != nil {
			return nil, err
		}
		fi, _ := f.axisIndex(axis)
		p := make([]int, 0, len(f.axes))
		p = append(p, fi)
		for j := range f.axes {
			if j != fi {
				p = append(p, j)
			}
		}
		parts[i] = f.transpose(p)
		total += f.SizeOf(axis)
		labels = append(labels, f.Labels(axis)...)
	}
	outAxes := parts[0].Axes()
	outAxes[0] = Axis{Name: axis, Labels: labels}
	data := make([]float64, 0, total*len(parts[0].data)/parts[0].SizeOf(axis))
	for _, p := range parts {
		data = append(data, p.data...)
	}
	return &Field{axes: outAxes, data: data}, nil
}

func sameShapeExcept(a, b *Field, axis string) error {
	if len(a.axes) != len(b.axes) {
		return core.NewDimensionMismatchError(core.StageGeneration, a.Shape(), b.Shape())
	}
	for _, ax := range a.axes {
		if ax.Name == axis {
			continue
		}
		if b.SizeOf(ax.Name) != ax.Size() {
			return core.NewAxisSizeMismatchError(ax.Name, ax.Size(), b.SizeOf(ax.Name))
		}
	}
	return nil
}

// MeanOver reduces the named axis to its arithmetic mean.
func (f *Field) MeanOver(axis string) (*Field, error) {
	ai, ok := f.axisIndex(axis)
	if !ok {
		return nil, core.NewAxisNotFoundError(axis)
	}
	perm := make([]int, 0, len(f.axes))
	perm = append(perm, ai)
	for i := range f.axes {
		if i != ai {
			perm = append(perm, i)
		}
	}
	t := f.transpose(perm)
	n := t.axes[0].Size()
	out := Zeros(t.axes[1:])
	for i := 0; i < n; i++ {
		base := i * len(out.data)
		for j := range out.data {
			out.data[j] += t.data[base+j]
		}
	}
	inv := 1.0 / float64(n)
	for j := range out.data {
		out.data[j] *= inv
	}
	return out, nil
}

// Climatology reduces every non-spatial axis to its mean, leaving the
// per-gridpoint reference state. The result broadcasts cleanly against any
// field on the same spatial grid regardless of its init/member/time sizes.
func (f *Field) Climatology() (*Field, error) {
	out := f
	var err error
	for _, ax := range []string{AxisInit, AxisMember, AxisTime, AxisSample} {
		if !out.HasAxis(ax) {
			continue
		}
		if out, err = out.MeanOver(ax); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Sub subtracts other from f, broadcasting other over any axes it lacks.
// Every axis of other must exist on f with the same size.
func (f *Field) Sub(other *Field) (*Field, error) {
	for _, ax := range other.axes {
		if f.SizeOf(ax.Name) != ax.Size() {
			return nil, core.NewAxisSizeMismatchError(ax.Name, ax.Size(), f.SizeOf(ax.Name))
		}
	}
	out := &Field{axes: f.Axes(), data: make([]float64, len(f.data))}
	oSt := other.strides()
	// Map each axis of f onto other's stride (0 when broadcast).
	bStride := make([]int, len(f.axes))
	for i, ax := range f.axes {
		if oi, ok := other.axisIndex(ax.Name); ok {
			bStride[i] = oSt[oi]
		}
	}
	shape := f.Shape()
	idx := make([]int, len(shape))
	for i := 0; i < len(f.data); i++ {
		oi := 0
		for d := range idx {
			oi += idx[d] * bStride[d]
		}
		out.data[i] = f.data[i] - other.data[oi]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

// SpatialAxes returns the axes not part of the sample-like set
// (init, member, time, sample), in field order.
func (f *Field) SpatialAxes() []string {
	var out []string
	for _, ax := range f.axes {
		switch ax.Name {
		case AxisInit, AxisMember, AxisTime, AxisSample:
		default:
			out = append(out, ax.Name)
		}
	}
	return out
}

// SpatialShape returns the sizes of the spatial axes in field order.
func (f *Field) SpatialShape() []int {
	var out []int
	for _, name := range f.SpatialAxes() {
		out = append(out, f.SizeOf(name))
	}
	return out
}

// SpatialSize returns the flattened spatial point count.
func (f *Field) SpatialSize() int {
	n := 1
	for _, s := range f.SpatialShape() {
		n *= s
	}
	return n
}

// SameSpatialShape checks two fields for identical spatial layout.
func SameSpatialShape(a, b *Field) error {
	as, bs := a.SpatialShape(), b.SpatialShape()
	if len(as) != len(bs) {
		return core.NewSpatialShapeMismatchError(as, bs)
	}
	for i := range as {
		if as[i] != bs[i] {
			return core.NewSpatialShapeMismatchError(as, bs)
		}
	}
	return nil
}

// SampleMatrix flattens the field to a samples x points dense matrix: rows
// run over every non-spatial axis combination (in field order), columns over
// the flattened spatial grid.
func (f *Field) SampleMatrix() *mat.Dense {
	spatial := map[string]bool{}
	for _, name := range f.SpatialAxes() {
		spatial[name] = true
	}
	perm := make([]int, 0, len(f.axes))
	for i, ax := range f.axes {
		if !spatial[ax.Name] {
			perm = append(perm, i)
		}
	}
	for i, ax := range f.axes {
		if spatial[ax.Name] {
			perm = append(perm, i)
		}
	}
	t := f.transpose(perm)
	cols := f.SpatialSize()
	rows := len(t.data) / cols
	return mat.NewDense(rows, cols, t.data)
}

// LatWeights builds per-point sqrt(cos(lat)) weights over the flattened
// spatial grid, with latitudes taken from the y axis labels in degrees and
// broadcast over longitude. Returns nil when the field has no y axis
// (curvilinear single-point-axis grids).
func LatWeights(f *Field) []float64 {
	lats := f.Labels(AxisY)
	if lats == nil {
		return nil
	}
	spatial := f.SpatialAxes()
	// Weights follow the flattened spatial order of SampleMatrix.
	sizes := f.SpatialShape()
	yPos := -1
	for i, name := range spatial {
		if name == AxisY {
			yPos = i
		}
	}
	if yPos < 0 {
		return nil
	}
	n := f.SpatialSize()
	w := make([]float64, n)
	inner := 1
	for i := yPos + 1; i < len(sizes); i++ {
		inner *= sizes[i]
	}
	for i := 0; i < n; i++ {
		yi := (i / inner) % sizes[yPos]
		w[i] = math.Sqrt(math.Cos(lats[yi] * math.Pi / 180.0))
	}
	return w
}
