package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
)

// Landscape A4 printable width in mm with 10mm margins
const pdfTableWidth = 277.0

// WritePDF renders r as a landscape table, one row per entry
func WritePDF(w io.Writer, title string, r *cloudability.Report, generated time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footerText := fmt.Sprintf("Generated by cloudability-exporter | %s", generated.Format("2006-01-02 15:04"))
		pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  %s", title)), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, fmt.Sprintf("  Entries: %d", r.Len()), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	columns := Columns(r)
	if len(columns) > 0 {
		width := pdfTableWidth / float64(len(columns))
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])

		pdf.SetFont("Arial", "B", 9)
		for _, col := range columns {
			pdf.CellFormat(width, 7, tr(fit(pdf, col, width)), "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range Rows(r, columns) {
			for _, cell := range row {
				pdf.CellFormat(width, 6, tr(fit(pdf, cell, width)), "B", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF file: %w", err)
	}
	return nil
}

// fit shortens s with an ellipsis until it fits a cell of the given width
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	const padding = 2.0
	if pdf.GetStringWidth(s) <= width-padding {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width-padding {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
