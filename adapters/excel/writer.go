package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookWriter assembles the plain-data report workbook. One sheet per
// table; no styling or charts, the workbook is a data product.
type WorkbookWriter struct {
	f      *excelize.File
	sheets int
}

// NewWorkbookWriter creates an empty workbook.
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{f: excelize.NewFile()}
}

// AddTable appends a sheet holding the header row followed by data rows.
// Nil cells are written as blanks so "no data" never renders as zero.
func (w *WorkbookWriter) AddTable(sheet string, headers []string, rows [][]interface{}) error {
	if w.sheets == 0 {
		// Reuse the default sheet for the first table.
		defaultSheet := w.f.GetSheetName(0)
		if err := w.f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to rename default sheet: %w", err)
		}
	} else {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
	}
	w.sheets++

	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := w.setRow(sheet, 1, headerCells); err != nil {
		return err
	}

	for i, row := range rows {
		if err := w.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) setRow(sheet string, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %q: %w", rowNum, sheet, err)
	}
	return nil
}

// Save writes the workbook to disk.
func (w *WorkbookWriter) Save(path string) error {
	if w.sheets == 0 {
		return fmt.Errorf("refusing to save empty workbook")
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return w.f.Close()
}
