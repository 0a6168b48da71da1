package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// SheetName is the name of the single worksheet written on export.
const SheetName = "Students"

// PDFTitle is the title printed above the table.
const PDFTitle = "Student List"

// headerFill is the header-row background, as RGB.
var headerFill = [3]int{99, 102, 241}

// ExportXLSX writes a single-sheet workbook with a styled header row.
func ExportXLSX(students []types.Student) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("ExportXLSX: rename sheet: %w", err)
	}

	header := make([]any, 0, len(Columns))
	for _, h := range Headers() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("ExportXLSX: header: %w", err)
	}

	for i, s := range students {
		cells := row(s)
		values := make([]any, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("ExportXLSX: row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("ExportXLSX: row %d: %w", i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{fmt.Sprintf("%02X%02X%02X", headerFill[0], headerFill[1], headerFill[2])},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ExportXLSX: style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, style); err != nil {
		return nil, fmt.Errorf("ExportXLSX: apply style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetColWidth(SheetName, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("ExportXLSX: column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ExportXLSX: write: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportCSV writes the header row and one line per record.
func ExportCSV(students []types.Student) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Headers()); err != nil {
		return nil, fmt.Errorf("ExportCSV: header: %w", err)
	}
	for _, s := range students {
		if err := w.Write(row(s)); err != nil {
			return nil, fmt.Errorf("ExportCSV: row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("ExportCSV: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Column widths in millimetres, summing to the printable A4 width.
var pdfWidths = []float64{60, 18, 52, 22, 30}

const (
	pdfMargin    = 14.0
	pdfRowHeight = 7.0
)

// ExportPDF writes an A4 document: a title, then the table with its header
// row repeated at the top of every page.
func ExportPDF(students []types.Student) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	_, pageH := pdf.GetPageSize()

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		pdf.SetTextColor(255, 255, 255)
		for i, h := range Headers() {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(pdfMargin, 20, tr(PDFTitle))
	pdf.SetY(30)
	header()

	for _, s := range students {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i, c := range row(s) {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ExportPDF: %w", err)
	}
	return buf.Bytes(), nil
}
