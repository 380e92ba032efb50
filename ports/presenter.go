package ports

import (
	"climent/domain/entropy"
)

// Presenter renders a relative-entropy result table: one panel per
// component in order R, S, D, with per-initialization traces, a median
// line, a median +/- std band, and an optional threshold line.
type Presenter interface {
	Present(table *entropy.ResultTable, threshold entropy.Threshold) error
}

// Exporter persists a result table to an external tabular format.
type Exporter interface {
	Export(table *entropy.ResultTable, threshold entropy.Threshold) error
}
