package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders a dataset onto a single worksheet.
type XLSXExporter struct {
	SheetName string
}

// NewXLSXExporter constructs an exporter writing to a sheet named "Statistics".
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SheetName: "Statistics"}
}

// Render writes the title in A1, the header row in row 3, the data below it
// and the summary lines after one blank row.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(sheet, "A1", data.Title); err != nil {
			return nil, err
		}
		row = 3
	}
	if err := setRow(f, sheet, row, data.Headers); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
		_ = f.SetCellStyle(sheet, first, last, style)
	}
	for _, values := range data.Rows {
		row++
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
	}
	row++
	for _, line := range data.Summary {
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
