// Package collector resolves one quote for every roster commodity.
//
// Live sources are consulted in a fixed order: futures series first, scraped
// pages second. Whatever is still unresolved afterwards is filled from a
// static demo table, so a run always covers the full roster.
package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/pkg/models"
)

// SeriesSource returns the latest close for a futures symbol.
type SeriesSource interface {
	LastClose(ctx context.Context, symbol string) (float64, bool)
}

// PageSource returns the headline value and unit text of a public page.
type PageSource interface {
	FirstNumericField(ctx context.Context, slug string) (price float64, unit string, ok bool)
}

// SeriesInstrument maps a commodity to a futures symbol.
type SeriesInstrument struct {
	Commodity models.Commodity
	Symbol    string
}

// PageInstrument maps a commodity to a public page slug.
type PageInstrument struct {
	Commodity models.Commodity
	Slug      string
}

// DemoQuote is one literal entry of the fallback table.
type DemoQuote struct {
	Commodity models.Commodity
	Price     float64
	Unit      string
}

// Units attached to series closes and defaulted for unitless pages.
const (
	UnitCentsPerLb  = "¢/lb"
	UnitUSDPerBu    = "USD/bushel"
	UnitUSDPerTonne = "USD/tonne"
	UnitUSDPerKg    = "USD/kg"
)

// Series lists the futures-backed commodities in processing order.
var Series = []SeriesInstrument{
	{models.Arabica, "KC=F"},
	{models.Cocoa, "CC=F"},
	{models.Corn, "ZC=F"},
	{models.Soybeans, "ZS=F"},
}

// Pages lists the page-scraped commodities in processing order.
var Pages = []PageInstrument{
	{models.Robusta, "robusta"},
	{models.VanillaNatural, "vanilla"},
	{models.DryBeans, "dry-beans"},
	{models.Onions, "onions"},
	{models.Pineapples, "pineapples"},
	{models.Bananas, "bananas"},
}

// Demo is the fallback table, one entry per roster commodity in roster order.
var Demo = []DemoQuote{
	{models.Arabica, 403.14, UnitCentsPerLb},
	{models.Robusta, 4506, UnitUSDPerTonne},
	{models.Cocoa, 2700, UnitUSDPerTonne},
	{models.Corn, 520, UnitUSDPerBu},
	{models.Soybeans, 1200, UnitUSDPerBu},
	{models.VanillaNatural, 160, UnitUSDPerKg},
	{models.DryBeans, 900, UnitUSDPerTonne},
	{models.Onions, 0.8, UnitUSDPerKg},
	{models.Pineapples, 400, UnitUSDPerTonne},
	{models.Bananas, 600, UnitUSDPerTonne},
}

// SeriesUnit returns the quoting unit of a futures symbol. Coffee "C" is
// quoted in cents per pound and the CBOT grains per bushel.
func SeriesUnit(symbol string) string {
	switch symbol {
	case "KC=F":
		return UnitCentsPerLb
	case "ZC=F", "ZS=F":
		return UnitUSDPerBu
	default:
		return UnitUSDPerTonne
	}
}

// PageInstrumentID returns the report instrument id for a page slug.
func PageInstrumentID(slug string) string { return "TE:" + slug }

// Collector runs the sources over the roster.
type Collector struct {
	series  SeriesSource
	pages   PageSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates a Collector. Either source may be nil, in which case its
// commodities go straight to the demo table.
func New(series SeriesSource, pages PageSource, logger *zap.Logger, metrics *observability.Metrics) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		series:  series,
		pages:   pages,
		logger:  logger,
		metrics: metrics,
	}
}

// Collect returns a dataset holding exactly one quote per roster commodity.
// Live quotes come first in source order, demo fills follow in roster order.
// A cancelled context stops live fetching but never the demo fill.
func (c *Collector) Collect(ctx context.Context) *models.Dataset {
	ds := models.NewDataset()
	c.collectSeries(ctx, ds)
	c.collectPages(ctx, ds)
	c.fillDemo(ds)

	counts := ds.CountBySource()
	c.logger.Info("collection complete",
		zap.Int("quotes", ds.Len()),
		zap.Int("series", counts[models.SourceSeries]),
		zap.Int("pages", counts[models.SourcePage]),
		zap.Int("demo", counts[models.SourceDemo]),
	)
	return ds
}

func (c *Collector) collectSeries(ctx context.Context, ds *models.Dataset) {
	if c.series == nil {
		return
	}
	for _, in := range Series {
		if ctx.Err() != nil {
			c.logger.Warn("series collection interrupted", zap.Error(ctx.Err()))
			return
		}
		price, ok := c.series.LastClose(ctx, in.Symbol)
		if !ok {
			continue
		}
		ds.Put(models.CommodityQuote{
			Commodity:  in.Commodity,
			Instrument: in.Symbol,
			Price:      price,
			Unit:       models.Unit(SeriesUnit(in.Symbol)),
			Source:     models.SourceSeries,
		})
	}
}

func (c *Collector) collectPages(ctx context.Context, ds *models.Dataset) {
	if c.pages == nil {
		return
	}
	for _, in := range Pages {
		if ctx.Err() != nil {
			c.logger.Warn("page collection interrupted", zap.Error(ctx.Err()))
			return
		}
		price, unit, ok := c.pages.FirstNumericField(ctx, in.Slug)
		if !ok {
			continue
		}
		if unit == "" {
			unit = UnitUSDPerTonne
		}
		ds.Put(models.CommodityQuote{
			Commodity:  in.Commodity,
			Instrument: PageInstrumentID(in.Slug),
			Price:      price,
			Unit:       models.Unit(unit),
			Source:     models.SourcePage,
		})
	}
}

func (c *Collector) fillDemo(ds *models.Dataset) {
	for _, d := range Demo {
		if ds.Resolved(d.Commodity) {
			continue
		}
		ds.Put(models.CommodityQuote{
			Commodity:  d.Commodity,
			Instrument: models.DemoInstrument,
			Price:      d.Price,
			Unit:       models.Unit(d.Unit),
			Source:     models.SourceDemo,
		})
		c.metrics.ObserveFallback()
		c.logger.Info("using demo price", zap.Stringer("commodity", d.Commodity))
	}
}
