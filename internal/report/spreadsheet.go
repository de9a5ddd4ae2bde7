package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the name of the only sheet in a report workbook
	SheetName = "Report"

	// ContentType is the MIME type of an encoded report
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"
)

// EncodeXLSX writes table into a single-sheet workbook and returns the file bytes
func EncodeXLSX(table Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, title := range table.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header: %w", err)
		}
		if err := f.SetCellStr(SheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header %q: %w", title, err)
		}
	}

	if len(table.Header) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, row := range table.Rows {
		for col, c := range row {
			if err := writeCell(f, col+1, r+2, c); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func writeCell(f *excelize.File, col, row int, c Cell) error {
	if c.Kind == CellEmpty {
		return nil
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to address cell: %w", err)
	}

	switch c.Kind {
	case CellText:
		err = f.SetCellStr(SheetName, name, c.Text)
	case CellNumber:
		err = f.SetCellFloat(SheetName, name, c.Number, c.Precision, 64)
	}
	if err != nil {
		return fmt.Errorf("failed to write cell %s: %w", name, err)
	}
	return nil
}
