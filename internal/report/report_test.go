package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jszwec/csvutil"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seenimoa/marketreport/internal/collector"
	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/internal/units"
	"github.com/seenimoa/marketreport/pkg/models"
)

func demoRows(t *testing.T) []models.NormalizedRow {
	t.Helper()
	ds := collector.New(nil, nil, nil, nil).Collect(context.Background())
	return BuildRows(ds, nil, nil)
}

func TestBuildRowsDemoTable(t *testing.T) {
	m := observability.NewMetrics()
	ds := collector.New(nil, nil, nil, nil).Collect(context.Background())
	rows := BuildRows(ds, zap.NewNop(), m)
	require.Len(t, rows, 10)

	want := []struct {
		commodity string
		usdPerKg  float64
		rule      string
	}{
		{"Arabica", 8.8877, units.RuleCentsPerLb},
		{"Robusta", 4.506, units.RuleUSDPerTon},
		{"Cocoa", 2.7, units.RuleUSDPerTon},
		{"Corn", 20.4724, units.RuleBushelCorn},
		{"Soybeans", 44.0925, units.RuleBushelSoy},
		{"Vanilla Natural", 160, units.RuleUSDPerKg},
		{"Dry Beans", 0.9, units.RuleUSDPerTon},
		{"Onions", 0.8, units.RuleUSDPerKg},
		{"Pineapples", 0.4, units.RuleUSDPerTon},
		{"Bananas", 0.6, units.RuleUSDPerTon},
	}
	for i, w := range want {
		assert.Equal(t, w.commodity, rows[i].Commodity)
		assert.InDelta(t, w.usdPerKg, rows[i].USDPerKg, 1e-9, w.commodity)
		assert.Equal(t, w.rule, rows[i].Rule, w.commodity)
		assert.Equal(t, models.SourceDemo, rows[i].Source)
		assert.Equal(t, models.DemoInstrument, rows[i].Instrument)
	}
	assert.Equal(t, "¢/lb", rows[0].RawUnit)
	assert.Equal(t, 403.14, rows[0].RawPrice)

	assert.InDelta(t, 5.0, testutil.ToFloat64(m.ConversionRules.WithLabelValues(units.RuleUSDPerTon)), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ConversionRules.WithLabelValues(units.RuleBushelCorn)), 0)
}

func TestBuildRowsKeepsDatasetOrder(t *testing.T) {
	ds := models.NewDataset()
	ds.Put(models.CommodityQuote{Commodity: models.Onions, Instrument: "TE:onions", Price: 0.65, Unit: models.Unit("USD/Kg"), Source: models.SourcePage})
	ds.Put(models.CommodityQuote{Commodity: models.Arabica, Instrument: "KC=F", Price: 398.2, Unit: models.Unit("¢/lb"), Source: models.SourceSeries})

	rows := BuildRows(ds, nil, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "Onions", rows[0].Commodity)
	assert.Equal(t, "Arabica", rows[1].Commodity)
	assert.Equal(t, models.SourcePage, rows[0].Source)
}

func TestBuildRowsUnitAbsent(t *testing.T) {
	ds := models.NewDataset()
	ds.Put(models.CommodityQuote{Commodity: models.Cocoa, Instrument: "CC=F", Price: 8123, Source: models.SourceSeries})

	rows := BuildRows(ds, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].RawUnit)
	assert.InDelta(t, 8.123, rows[0].USDPerKg, 1e-9)
	assert.Equal(t, units.RuleHeuristic, rows[0].Rule)
}

func TestBuildRowsWarnsOnUnmappedBushel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ds := models.NewDataset()
	ds.Put(models.CommodityQuote{Commodity: models.DryBeans, Instrument: "TE:dry-beans", Price: 14.5, Unit: models.Unit("USD/Bushel"), Source: models.SourcePage})

	rows := BuildRows(ds, zap.New(core), nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 14.5, rows[0].USDPerKg)
	assert.Equal(t, units.RuleNoop, rows[0].Rule)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Dry Beans", entries[0].ContextMap()["commodity"])
}

func TestBuildRowsNilDataset(t *testing.T) {
	assert.Nil(t, BuildRows(nil, nil, nil))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 8.8877, Round(8.887715637721154))
	assert.Equal(t, 0.0001, Round(0.00005))
	assert.Equal(t, 160.0, Round(160))
	assert.Equal(t, -1.2346, Round(-1.23456))
}

func newTestWriter(t *testing.T, xlsxOn bool) (*Writer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	// 23:30 in UTC-5 on 1 March is already 2 March in UTC.
	est := time.FixedZone("EST", -5*60*60)
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 23, 30, 0, 0, est))
	return NewWriter(WriterOptions{Dir: dir, XLSX: xlsxOn, Clock: clock}), dir
}

func TestWriterWritesDatedArtifacts(t *testing.T) {
	w, dir := newTestWriter(t, true)
	rows := demoRows(t)

	a, err := w.Write("run-1", rows)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", a.Meta.Date)
	assert.Equal(t, filepath.Join(dir, "market_report_2026-03-02.csv"), a.CSV)
	assert.Equal(t, filepath.Join(dir, "market_report_2026-03-02.pdf"), a.PDF)
	assert.Equal(t, filepath.Join(dir, "market_report_2026-03-02.xlsx"), a.XLSX)
	assert.Equal(t, []string{a.CSV, a.PDF, a.XLSX}, a.Files())
	for _, f := range a.Files() {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.Positive(t, info.Size(), f)
	}
}

func TestWriterXLSXDisabled(t *testing.T) {
	w, dir := newTestWriter(t, false)
	a, err := w.Write("run-2", demoRows(t))
	require.NoError(t, err)

	assert.Empty(t, a.XLSX)
	assert.Equal(t, []string{a.CSV, a.PDF}, a.Files())
	_, err = os.Stat(filepath.Join(dir, "market_report_2026-03-02.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriterDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewWriter(WriterOptions{Dir: blocker})
	_, err := w.Write("run-3", demoRows(t))
	assert.Error(t, err)
}

func TestWriterDefaultDir(t *testing.T) {
	assert.Equal(t, "reports", NewWriter(WriterOptions{}).Dir())
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := demoRows(t)
	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "culture,instrument,raw_price,raw_unit,USD_per_kg,source", lines[0])
	assert.Equal(t, "Arabica,demo,403.14,¢/lb,8.8877,demo", lines[1])
	assert.Equal(t, "Vanilla Natural,demo,160,USD/kg,160,demo", lines[6])

	var records []csvRecord
	require.NoError(t, csvutil.Unmarshal(data, &records))
	require.Len(t, records, 10)
	for i, rec := range records {
		assert.Equal(t, rows[i].Commodity, rec.Culture)
		assert.Equal(t, rows[i].USDPerKg, float64(rec.USDPerKg))
	}
}

func TestWriteCSVNoExponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")
	rows := []models.NormalizedRow{{Commodity: "Cocoa", Instrument: "CC=F", RawPrice: 12500000, RawUnit: "USD/kg", USDPerKg: 12500000, Source: models.SourceSeries}}
	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cocoa,CC=F,12500000,USD/kg,12500000,yfinance")
}

func TestWriteCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "culture,instrument,raw_price,raw_unit,USD_per_kg,source", strings.TrimSpace(string(data)))
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	meta := Meta{RunID: "run-4", Date: "2026-03-02", GeneratedAt: time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, WritePDF(path, meta, demoRows(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestWritePDFManyRowsPaginates(t *testing.T) {
	var rows []models.NormalizedRow
	for i := 0; i < 60; i++ {
		rows = append(rows, demoRows(t)...)
	}
	path := filepath.Join(t.TempDir(), "long.pdf")
	require.NoError(t, WritePDF(path, Meta{Date: "2026-03-02"}, rows))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	rows := demoRows(t)
	require.NoError(t, WriteXLSX(path, rows))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, XLSXSheet, sheet.Name)
	require.Len(t, sheet.Rows, 11)

	var header []string
	for _, c := range sheet.Rows[0].Cells {
		header = append(header, c.String())
	}
	assert.Equal(t, []string{"culture", "instrument", "raw_price", "raw_unit", "USD_per_kg", "source", "rule"}, header)

	first := sheet.Rows[1].Cells
	assert.Equal(t, "Arabica", first[0].String())
	v, err := first[4].Float()
	require.NoError(t, err)
	assert.Equal(t, 8.8877, v)
	assert.Equal(t, units.RuleCentsPerLb, first[6].String())
}

func TestRenderSummaryHTML(t *testing.T) {
	meta := Meta{RunID: "run-5", Date: "2026-03-02", GeneratedAt: time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)}
	html, err := RenderSummaryHTML(meta, demoRows(t))
	require.NoError(t, err)

	assert.Contains(t, html, "Market Report — 2026-03-02")
	assert.Contains(t, html, "run run-5")
	assert.Contains(t, html, "2026-03-02 12:00 UTC")
	assert.Contains(t, html, "10 commodities: 0 series, 0 page, 10 demo.")
	assert.Contains(t, html, "Demo prices stand in")
	assert.Contains(t, html, "Vanilla Natural")
	assert.Contains(t, html, "8.8877")
	assert.Contains(t, html, "<svg")
}

func TestRenderSummaryHTMLEscapes(t *testing.T) {
	rows := []models.NormalizedRow{{Commodity: "<b>Cocoa</b>", RawUnit: "USD/t", USDPerKg: 1, Source: models.SourcePage}}
	html, err := RenderSummaryHTML(Meta{Date: "2026-03-02"}, rows)
	require.NoError(t, err)
	assert.NotContains(t, html, "<b>Cocoa</b>")
	assert.NotContains(t, html, "Demo prices stand in")
}

func TestBarChart(t *testing.T) {
	svg := BarChart(RowBars(demoRows(t)), DefaultChartConfig())
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 10, strings.Count(svg, `rx="2"`))
	assert.Contains(t, svg, "Dry Beans")
	assert.Contains(t, svg, "160.0000")
}

func TestBarChartEmpty(t *testing.T) {
	svg := BarChart(nil, ChartConfig{})
	assert.Contains(t, svg, "No data")
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot;", escapeXML(`a & b <c> "d"`))
}
