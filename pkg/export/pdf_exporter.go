package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pageContentWidth = 190.0

// PDFExporter renders datasets into a single tabular A4 report.
type PDFExporter struct {
	// FontDir, when set, holds a UTF-8 TrueType font registered as FontFamily.
	FontDir    string
	FontFile   string
	FontFamily string
}

// NewPDFExporter constructs a PDF exporter using the core Arial font.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out the title, the table and any summary lines.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", e.FontDir)
	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.FontFile != "" && e.FontFamily != "" {
		pdf.AddUTF8Font(e.FontFamily, "", e.FontFile)
		pdf.AddUTF8Font(e.FontFamily, "B", e.FontFile)
		family = e.FontFamily
		tr = func(s string) string { return s }
	}
	pdf.SetMargins(10, 15, 10)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := pageContentWidth / float64(len(data.Headers))
	header := func() {
		pdf.SetFont(family, "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(family, "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		for i := range data.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(colWidth, 7, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(data.Summary) > 0 {
		pdf.Ln(4)
		pdf.SetFont(family, "", 10)
		for _, line := range data.Summary {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
