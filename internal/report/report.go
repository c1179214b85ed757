// Package report turns a collected dataset into normalized rows and renders
// them as the dated CSV, PDF and XLSX artifacts of a market report, plus an
// HTML summary for the delivery e-mail.
package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/internal/units"
	"github.com/seenimoa/marketreport/pkg/models"
	"github.com/seenimoa/marketreport/pkg/utils"
)

// FilePrefix starts every artifact name: market_report_<YYYY-MM-DD>.<ext>.
const FilePrefix = "market_report_"

// RoundPlaces is the number of decimals kept in USD/kg values.
const RoundPlaces = 4

// ════════════════════════════════════════════════════════════════════
// Row building
// ════════════════════════════════════════════════════════════════════

// BuildRows normalizes every quote in dataset order. Rows are never
// reordered or dropped.
func BuildRows(ds *models.Dataset, logger *zap.Logger, metrics *observability.Metrics) []models.NormalizedRow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ds == nil {
		return nil
	}

	quotes := ds.Quotes()
	rows := make([]models.NormalizedRow, 0, len(quotes))
	for _, q := range quotes {
		name := q.Commodity.String()
		conv := units.Convert(q.Price, q.Unit, name)
		metrics.ObserveRule(conv.Rule)

		if units.IsUnmappedBushel(q.Unit, name) {
			logger.Warn("bushel unit without a bushel weight, price left unconverted",
				zap.String("commodity", name),
				zap.String("unit", q.UnitText()),
				zap.String("rule", conv.Rule),
			)
		} else if conv.Rule == units.RuleNoop {
			logger.Debug("unit not recognized",
				zap.String("commodity", name),
				zap.String("unit", q.UnitText()),
			)
		}

		rows = append(rows, models.NormalizedRow{
			Commodity:  name,
			Instrument: q.Instrument,
			RawPrice:   q.Price,
			RawUnit:    q.UnitText(),
			USDPerKg:   Round(conv.Value),
			Source:     q.Source,
			Rule:       conv.Rule,
		})
	}
	return rows
}

// Round rounds v half away from zero to RoundPlaces decimals.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(RoundPlaces).InexactFloat64()
}

// ════════════════════════════════════════════════════════════════════
// Writer
// ════════════════════════════════════════════════════════════════════

// Meta describes one report run for headers and summaries.
type Meta struct {
	RunID       string
	Date        string // UTC, YYYY-MM-DD
	GeneratedAt time.Time
}

// Title is the report headline, e.g. "Market Report — 2026-03-02".
func (m Meta) Title() string {
	return "Market Report — " + m.Date
}

// Artifacts lists the files written for one run. XLSX is empty when the
// spreadsheet export is disabled.
type Artifacts struct {
	Meta Meta
	CSV  string
	PDF  string
	XLSX string
}

// Files returns the written paths in attachment order.
func (a Artifacts) Files() []string {
	files := []string{a.CSV, a.PDF}
	if a.XLSX != "" {
		files = append(files, a.XLSX)
	}
	return files
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	Dir    string // created on demand; defaults to "reports"
	XLSX   bool
	Clock  clockwork.Clock
	Logger *zap.Logger
}

// Writer renders rows into the output directory.
type Writer struct {
	dir    string
	xlsx   bool
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts WriterOptions) *Writer {
	w := &Writer{
		dir:    opts.Dir,
		xlsx:   opts.XLSX,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if w.dir == "" {
		w.dir = "reports"
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Meta stamps a run with the writer's current UTC date.
func (w *Writer) Meta(runID string) Meta {
	now := w.clock.Now().UTC()
	return Meta{
		RunID:       runID,
		Date:        utils.ReportDate(now),
		GeneratedAt: now,
	}
}

// Path returns the artifact path for date and extension.
func (w *Writer) Path(date, ext string) string {
	return filepath.Join(w.dir, FilePrefix+date+"."+ext)
}

// Write creates the output directory and writes every artifact. Existing
// files for the same date are overwritten.
func (w *Writer) Write(runID string, rows []models.NormalizedRow) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, eris.Wrapf(err, "report: create dir %s", w.dir)
	}

	meta := w.Meta(runID)
	a := Artifacts{
		Meta: meta,
		CSV:  w.Path(meta.Date, "csv"),
		PDF:  w.Path(meta.Date, "pdf"),
	}

	if err := WriteCSV(a.CSV, rows); err != nil {
		return Artifacts{}, err
	}
	if err := WritePDF(a.PDF, meta, rows); err != nil {
		return Artifacts{}, err
	}
	if w.xlsx {
		a.XLSX = w.Path(meta.Date, "xlsx")
		if err := WriteXLSX(a.XLSX, rows); err != nil {
			return Artifacts{}, err
		}
	}

	w.logger.Info("report written",
		zap.String("run_id", runID),
		zap.String("date", meta.Date),
		zap.Int("rows", len(rows)),
		zap.Strings("files", a.Files()),
	)
	return a, nil
}
