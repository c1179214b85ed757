package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"

	"github.com/seenimoa/marketreport/pkg/models"
	"github.com/seenimoa/marketreport/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// PDF: title page (A4 portrait) then the price table (A4 landscape)
// ════════════════════════════════════════════════════════════════════

// pdfColumn is one column of the price table.
type pdfColumn struct {
	Header string
	Width  float64 // mm
	Align  string
	Value  func(r models.NormalizedRow) string
}

// pdfColumns fill the 277 mm usable width of a landscape A4 page.
var pdfColumns = []pdfColumn{
	{"culture", 70, "L", func(r models.NormalizedRow) string { return r.Commodity }},
	{"raw_price", 45, "R", func(r models.NormalizedRow) string { return utils.FormatRawPrice(r.RawPrice) }},
	{"raw_unit", 62, "L", func(r models.NormalizedRow) string { return r.RawUnit }},
	{"USD_per_kg", 50, "R", func(r models.NormalizedRow) string { return utils.FormatUSDPerKg(r.USDPerKg) }},
	{"source", 50, "L", func(r models.NormalizedRow) string { return string(r.Source) }},
}

const (
	pdfMargin    = 10.0
	pdfRowHeight = 8.0
)

var a4 = fpdf.SizeType{Wd: 210, Ht: 297}

// WritePDF renders the two-part report to path.
func WritePDF(path string, meta Meta, rows []models.NormalizedRow) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(meta.Title(), true)
	pdf.SetCreator("marketreport", true)
	pdf.SetCreationDate(meta.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	titlePage(pdf, tr, meta, rows)
	tablePages(pdf, tr, rows)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return eris.Wrapf(err, "report: write pdf %s", path)
	}
	return nil
}

func titlePage(pdf *fpdf.Fpdf, tr func(string) string, meta Meta, rows []models.NormalizedRow) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Ln(60)
	pdf.CellFormat(0, 14, tr(meta.Title()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Ln(6)
	pdf.CellFormat(0, 8, tr("Generated "+utils.FormatDateTimeUTC(meta.GeneratedAt)), "", 1, "C", false, 0, "")
	if meta.RunID != "" {
		pdf.CellFormat(0, 8, tr("Run "+meta.RunID), "", 1, "C", false, 0, "")
	}

	counts := make(map[models.SourceTag]int, 3)
	for _, r := range rows {
		counts[r.Source]++
	}
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d commodities: %d series, %d page, %d demo",
		len(rows), counts[models.SourceSeries], counts[models.SourcePage], counts[models.SourceDemo]),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "All prices normalized to USD/kg", "", 1, "C", false, 0, "")
}

func tablePages(pdf *fpdf.Fpdf, tr func(string) string, rows []models.NormalizedRow) {
	pdf.AddPageFormat("L", a4)
	tableHeader(pdf)

	_, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 10)
	for i, r := range rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPageFormat("L", a4)
			tableHeader(pdf)
			pdf.SetFont("Helvetica", "", 10)
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 247, 250)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.Width, pdfRowHeight, tr(col.Value(r)), "LR", 0, col.Align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var total float64
	for _, col := range pdfColumns {
		total += col.Width
	}
	pdf.CellFormat(total, 0, "", "T", 1, "", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.Width, pdfRowHeight+1, col.Header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(26, 26, 46)
}
