package models

// Dataset accumulates one quote per commodity during a collection run.
// Quotes() yields entries in the order they were first resolved.
type Dataset struct {
	quotes   []CommodityQuote
	resolved [numCommodities]int // index+1 into quotes; 0 means unresolved
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// Resolved reports whether c already has a quote.
func (d *Dataset) Resolved(c Commodity) bool {
	return c.Valid() && d.resolved[c] != 0
}

// Put records q. A commodity keeps its first position when re-resolved;
// quotes for commodities outside the roster are ignored.
func (d *Dataset) Put(q CommodityQuote) {
	if !q.Commodity.Valid() {
		return
	}
	if i := d.resolved[q.Commodity]; i != 0 {
		d.quotes[i-1] = q
		return
	}
	d.quotes = append(d.quotes, q)
	d.resolved[q.Commodity] = len(d.quotes)
}

// Get returns the quote for c.
func (d *Dataset) Get(c Commodity) (CommodityQuote, bool) {
	if !d.Resolved(c) {
		return CommodityQuote{}, false
	}
	return d.quotes[d.resolved[c]-1], true
}

// Quotes returns a copy of the quotes in resolution order.
func (d *Dataset) Quotes() []CommodityQuote {
	out := make([]CommodityQuote, len(d.quotes))
	copy(out, d.quotes)
	return out
}

// Len returns the number of resolved commodities.
func (d *Dataset) Len() int { return len(d.quotes) }

// Unresolved lists roster commodities without a quote, in roster order.
func (d *Dataset) Unresolved() []Commodity {
	var out []Commodity
	for _, c := range Roster() {
		if !d.Resolved(c) {
			out = append(out, c)
		}
	}
	return out
}

// CountBySource tallies quotes per source tag.
func (d *Dataset) CountBySource() map[SourceTag]int {
	counts := make(map[SourceTag]int, 3)
	for _, q := range d.quotes {
		counts[q.Source]++
	}
	return counts
}
