package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/seenimoa/marketreport/pkg/models"
)

// XLSXSheet is the worksheet name of the spreadsheet artifact.
const XLSXSheet = "Market Report"

// XLSXHeader is the CSV header plus the conversion rule column.
var XLSXHeader = append(append([]string{}, CSVHeader...), "rule")

// WriteXLSX writes rows to a single-sheet workbook. Prices are stored as
// numeric cells.
func WriteXLSX(path string, rows []models.NormalizedRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(XLSXSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range XLSXHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Commodity)
		row.AddCell().SetString(r.Instrument)
		row.AddCell().SetFloat(r.RawPrice)
		row.AddCell().SetString(r.RawUnit)
		row.AddCell().SetFloat(r.USDPerKg)
		row.AddCell().SetString(string(r.Source))
		row.AddCell().SetString(r.Rule)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
