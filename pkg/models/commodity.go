package models

import "strconv"

// Commodity is one entry of the fixed report roster.
type Commodity int

// Roster entries, in demo-table order.
const (
	Arabica Commodity = iota
	Robusta
	Cocoa
	Corn
	Soybeans
	VanillaNatural
	DryBeans
	Onions
	Pineapples
	Bananas

	numCommodities
)

var commodityNames = [numCommodities]string{
	Arabica:        "Arabica",
	Robusta:        "Robusta",
	Cocoa:          "Cocoa",
	Corn:           "Corn",
	Soybeans:       "Soybeans",
	VanillaNatural: "Vanilla Natural",
	DryBeans:       "Dry Beans",
	Onions:         "Onions",
	Pineapples:     "Pineapples",
	Bananas:        "Bananas",
}

// String returns the display name used in every report column.
func (c Commodity) String() string {
	if !c.Valid() {
		return "Commodity(" + strconv.Itoa(int(c)) + ")"
	}
	return commodityNames[c]
}

// Valid reports whether c belongs to the roster.
func (c Commodity) Valid() bool {
	return c >= 0 && c < numCommodities
}

// Roster returns every commodity the report covers, in demo-table order.
func Roster() []Commodity {
	out := make([]Commodity, 0, numCommodities)
	for c := Commodity(0); c < numCommodities; c++ {
		out = append(out, c)
	}
	return out
}

// SourceTag records where a quote came from.
type SourceTag string

const (
	SourceSeries SourceTag = "yfinance"         // financial time-series provider
	SourcePage   SourceTag = "tradingeconomics" // scraped public page
	SourceDemo   SourceTag = "demo"             // static fallback table
)

// DemoInstrument is the instrument id carried by demo-fallback quotes.
const DemoInstrument = "demo"

// CommodityQuote is one commodity's raw observation for a single run.
type CommodityQuote struct {
	Commodity  Commodity `json:"commodity"`
	Instrument string    `json:"instrument"`     // ticker, "TE:<slug>" or "demo"
	Price      float64   `json:"price"`          // in the source's native unit
	Unit       *string   `json:"unit,omitempty"` // nil when the source gave no unit
	Source     SourceTag `json:"source"`
}

// UnitText returns the raw unit, or "" when absent.
func (q CommodityQuote) UnitText() string {
	if q.Unit == nil {
		return ""
	}
	return *q.Unit
}

// Unit returns a pointer to a copy of s, for building quotes with a known unit.
func Unit(s string) *string {
	return &s
}

// NormalizedRow is a quote converted to USD/kg, ready for rendering.
type NormalizedRow struct {
	Commodity  string    `json:"culture"`
	Instrument string    `json:"instrument"`
	RawPrice   float64   `json:"raw_price"`
	RawUnit    string    `json:"raw_unit"`
	USDPerKg   float64   `json:"usd_per_kg"` // rounded to 4 decimals
	Source     SourceTag `json:"source"`
	Rule       string    `json:"rule"` // conversion rule that produced USDPerKg
}
