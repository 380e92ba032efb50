// Package export writes relative-entropy result tables to spreadsheet
// files for downstream analysis outside the pipeline.
package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"climent/domain/entropy"
)

const sheetName = "Sheet1"

// ExcelWriter exports a result table (and optional threshold row) as an
// .xlsx workbook: one "Lead Year" index column followed by one column per
// (component, initialization) pair, components grouped in order R, S, D.
type ExcelWriter struct {
	filePath string
}

// NewExcelWriter creates a writer targeting the given path.
func NewExcelWriter(filePath string) *ExcelWriter {
	return &ExcelWriter{filePath: filePath}
}

// Export writes the workbook. Threshold may be nil; when present it is
// appended as a final row labeled "threshold" with one value per component.
func (w *ExcelWriter) Export(table *entropy.ResultTable, threshold entropy.Threshold) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.setCell(f, 1, 1, "Lead Year"); err != nil {
		return err
	}
	col := 2
	for _, c := range entropy.Components() {
		for _, init := range table.Inits() {
			if err := w.setCell(f, col, 1, fmt.Sprintf("%s/%g", c, init)); err != nil {
				return err
			}
			col++
		}
	}

	for i, lead := range table.Leads() {
		row := i + 2
		if err := w.setCell(f, 1, row, lead); err != nil {
			return err
		}
		col = 2
		for _, c := range entropy.Components() {
			for _, init := range table.Inits() {
				v := table.At(lead, c, init)
				if !math.IsNaN(v) {
					if err := w.setCell(f, col, row, v); err != nil {
						return err
					}
				}
				col++
			}
		}
	}

	if threshold != nil {
		row := len(table.Leads()) + 2
		if err := w.setCell(f, 1, row, "threshold"); err != nil {
			return err
		}
		col = 2
		for _, c := range entropy.Components() {
			for range table.Inits() {
				if err := w.setCell(f, col, row, threshold[c]); err != nil {
					return err
				}
				col++
			}
		}
	}

	return f.SaveAs(w.filePath)
}

func (w *ExcelWriter) setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, cell, v)
}
