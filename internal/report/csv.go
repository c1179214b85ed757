package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/seenimoa/marketreport/pkg/models"
)

// CSVHeader is the column order of the CSV artifact.
var CSVHeader = []string{"culture", "instrument", "raw_price", "raw_unit", "USD_per_kg", "source"}

// csvFloat prints the shortest exact decimal, never exponent notation.
type csvFloat float64

func (f csvFloat) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(f), 'f', -1, 64), nil
}

func (f *csvFloat) UnmarshalText(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = csvFloat(v)
	return nil
}

// csvRecord is one CSV line.
type csvRecord struct {
	Culture    string   `csv:"culture"`
	Instrument string   `csv:"instrument"`
	RawPrice   csvFloat `csv:"raw_price"`
	RawUnit    string   `csv:"raw_unit"`
	USDPerKg   csvFloat `csv:"USD_per_kg"`
	Source     string   `csv:"source"`
}

func toCSVRecord(r models.NormalizedRow) csvRecord {
	return csvRecord{
		Culture:    r.Commodity,
		Instrument: r.Instrument,
		RawPrice:   csvFloat(r.RawPrice),
		RawUnit:    r.RawUnit,
		USDPerKg:   csvFloat(r.USDPerKg),
		Source:     string(r.Source),
	}
}

// WriteCSV writes rows to path with a header line, in row order.
func WriteCSV(path string, rows []models.NormalizedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(csvRecord{}); err != nil {
			return eris.Wrap(err, "report: encode csv header")
		}
	}
	for _, r := range rows {
		if err := enc.Encode(toCSVRecord(r)); err != nil {
			return eris.Wrapf(err, "report: encode csv row %s", r.Commodity)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
