package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a titled table. Each row holds one value per header, in order.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Summary lines are printed under the table by renderers that support it.
	Summary []string
}

// AddRow appends a row, padding or truncating it to the header width.
func (d *Dataset) AddRow(values ...string) {
	row := make([]string, len(d.Headers))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

// CSVExporter renders datasets as CSV with a UTF-8 byte order mark so
// spreadsheet tools keep non-ASCII class names intact.
type CSVExporter struct {
	BOM bool
}

// NewCSVExporter builds a CSV exporter that writes a BOM.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{BOM: true}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.WriteString("\ufeff")
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return nil, fmt.Errorf("csv row %d has %d values, want %d", i+1, len(row), len(data.Headers))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
