package entropy

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"climent/domain/core"
)

// Component is one term of the relative-entropy decomposition.
type Component string

const (
	ComponentR Component = "R" // total relative entropy
	ComponentS Component = "S" // signal (mean shift)
	ComponentD Component = "D" // dispersion (spread change)
)

// Components returns the decomposition terms in presentation order.
func Components() []Component {
	return []Component{ComponentR, ComponentS, ComponentD}
}

// Gaussian is an empirical Gaussian approximation of a projected ensemble:
// mean vector and sample covariance over the member axis, in EOF coordinates.
type Gaussian struct {
	Mean []float64
	Cov  *mat.SymDense
}

// Dim returns the dimensionality of the approximation.
func (g Gaussian) Dim() int { return len(g.Mean) }

// EstimateGaussian fits a Gaussian to per-member EOF coordinates
// (rows = members, cols = components).
func EstimateGaussian(pcs *mat.Dense) (Gaussian, error) {
	rows, cols := pcs.Dims()
	if rows < 2 {
		return Gaussian{}, core.NewSingularCovarianceError(core.StageCovariance, cols,
			"need at least 2 members to estimate a covariance")
	}
	mean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, pcs), nil)
	}
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, pcs, nil)
	return Gaussian{Mean: mean, Cov: cov}, nil
}

// Threshold maps a decomposition component to its bootstrapped
// significance-level value.
type Threshold map[Component]float64

// ResultTable is the lead-time-resolved relative entropy: rows are lead
// steps 1..T-1 ("Lead Year"), columns the cartesian product of components
// and initialization labels. Unfilled cells are NaN. Immutable once built.
type ResultTable struct {
	leads []int
	inits []float64
	cells map[Component][]float64
}

// Leads returns the row labels (lead steps).
func (t *ResultTable) Leads() []int { return t.leads }

// Inits returns the initialization labels.
func (t *ResultTable) Inits() []float64 { return t.inits }

func (t *ResultTable) initIndex(init float64) int {
	for i, v := range t.inits {
		if v == init {
			return i
		}
	}
	return -1
}

// At returns the cell at (lead, component, initialization); NaN when unset
// or out of range.
func (t *ResultTable) At(lead int, c Component, init float64) float64 {
	ii := t.initIndex(init)
	li := lead - 1
	if ii < 0 || li < 0 || li >= len(t.leads) {
		return math.NaN()
	}
	return t.cells[c][li*len(t.inits)+ii]
}

// Series returns the per-lead values for one (component, initialization)
// column, in lead order.
func (t *ResultTable) Series(c Component, init float64) []float64 {
	ii := t.initIndex(init)
	if ii < 0 {
		return nil
	}
	out := make([]float64, len(t.leads))
	for li := range t.leads {
		out[li] = t.cells[c][li*len(t.inits)+ii]
	}
	return out
}

// Row returns all initialization values of one component at one lead.
func (t *ResultTable) Row(lead int, c Component) []float64 {
	li := lead - 1
	if li < 0 || li >= len(t.leads) {
		return nil
	}
	out := make([]float64, len(t.inits))
	copy(out, t.cells[c][li*len(t.inits):(li+1)*len(t.inits)])
	return out
}

// ComponentValues pools every finite cell of one component across all leads
// and initializations.
func (t *ResultTable) ComponentValues(c Component) []float64 {
	var out []float64
	for _, v := range t.cells[c] {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Fingerprint digests the table for reproducibility logging.
func (t *ResultTable) Fingerprint() string {
	var all []float64
	for _, c := range Components() {
		all = append(all, t.cells[c]...)
	}
	return core.Fingerprint(all)
}

// TableBuilder fills a ResultTable cell by cell and finalizes it once.
type TableBuilder struct {
	table *ResultTable
}

// NewTableBuilder pre-sizes a table for leads 1..length-1 and the given
// initialization labels, every cell NaN.
func NewTableBuilder(length int, inits []float64) *TableBuilder {
	leads := make([]int, 0, length-1)
	for l := 1; l < length; l++ {
		leads = append(leads, l)
	}
	cells := make(map[Component][]float64, 3)
	for _, c := range Components() {
		col := make([]float64, len(leads)*len(inits))
		for i := range col {
			col[i] = math.NaN()
		}
		cells[c] = col
	}
	return &TableBuilder{table: &ResultTable{leads: leads, inits: inits, cells: cells}}
}

// Set stores one cell.
func (b *TableBuilder) Set(lead int, c Component, init float64, v float64) error {
	t := b.table
	ii := t.initIndex(init)
	li := lead - 1
	if ii < 0 {
		return core.NewLabelNotFoundError("init", init)
	}
	if li < 0 || li >= len(t.leads) {
		return core.NewLabelNotFoundError("lead", float64(lead))
	}
	t.cells[c][li*len(t.inits)+ii] = v
	return nil
}

// Build finalizes and returns the table. The builder must not be reused.
func (b *TableBuilder) Build() *ResultTable {
	t := b.table
	b.table = nil
	return t
}
