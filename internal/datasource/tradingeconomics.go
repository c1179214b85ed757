package datasource

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/pkg/models"
)

// DefaultTEBaseURL is the Trading Economics public site.
const DefaultTEBaseURL = "https://tradingeconomics.com"

// DefaultSelectors are tried in order against a commodity page; the first
// element with non-empty text wins.
var DefaultSelectors = []string{
	".tradingeconomics-widget .value",
	".indicator .value",
	".last",
	".quote-value",
	".value",
}

// MetaField identifies a <meta> tag by attribute, e.g. name="twitter:data1".
type MetaField struct {
	Attr  string
	Value string
}

// DefaultMetaFields are read when no selector matches.
var DefaultMetaFields = []MetaField{
	{Attr: "name", Value: "twitter:data1"},
	{Attr: "property", Value: "og:description"},
}

// Courtesy delay after each page request: DefaultDelayMin plus a uniform
// jitter in [0, DefaultDelayJitter).
const (
	DefaultDelayMin    = 600 * time.Millisecond
	DefaultDelayJitter = 600 * time.Millisecond
)

// numericToken matches the first integer or decimal in cleaned page text.
var numericToken = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)`)

// TradingEconomicsOptions configures a TradingEconomics source. Empty
// strings and slices take defaults; zero delays disable the courtesy pause.
type TradingEconomicsOptions struct {
	BaseURL     string
	Timeout     time.Duration
	Selectors   []string
	MetaFields  []MetaField
	DelayMin    time.Duration
	DelayJitter time.Duration
	Client      HTTPDoer // overrides Timeout when set
	Clock       clockwork.Clock
	Rand        func() float64 // uniform [0,1); defaults to math/rand/v2
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// TradingEconomics scrapes headline prices from public commodity pages.
type TradingEconomics struct {
	baseURL     string
	client      HTTPDoer
	selectors   []string
	metaFields  []MetaField
	delayMin    time.Duration
	delayJitter time.Duration
	clock       clockwork.Clock
	rand        func() float64
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewTradingEconomics creates a new page-scrape source.
func NewTradingEconomics(opts TradingEconomicsOptions) *TradingEconomics {
	te := &TradingEconomics{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      NewHTTPClient(opts.Timeout),
		selectors:   opts.Selectors,
		metaFields:  opts.MetaFields,
		delayMin:    opts.DelayMin,
		delayJitter: opts.DelayJitter,
		clock:       opts.Clock,
		rand:        opts.Rand,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if opts.Client != nil {
		te.client = opts.Client
	}
	if te.baseURL == "" {
		te.baseURL = DefaultTEBaseURL
	}
	if len(te.selectors) == 0 {
		te.selectors = DefaultSelectors
	}
	if len(te.metaFields) == 0 {
		te.metaFields = DefaultMetaFields
	}
	if te.delayMin < 0 {
		te.delayMin = 0
	}
	if te.delayJitter < 0 {
		te.delayJitter = 0
	}
	if te.clock == nil {
		te.clock = clockwork.NewRealClock()
	}
	if te.rand == nil {
		te.rand = rand.Float64
	}
	if te.logger == nil {
		te.logger = zap.NewNop()
	}
	return te
}

// Name returns the data source name.
func (te *TradingEconomics) Name() string { return string(models.SourcePage) }

// FirstNumericField fetches the commodity page for slug and returns the first
// numeric value found, with any trailing text as its unit ("" when none).
// ok is false on any fetch or parse failure. Every call, successful or not,
// ends with the courtesy delay.
func (te *TradingEconomics) FirstNumericField(ctx context.Context, slug string) (price float64, unit string, ok bool) {
	defer te.pause(ctx)

	price, unit, err := te.scrape(ctx, slug)
	if err != nil {
		kind := ErrorKind(err)
		outcome := observability.OutcomeError
		if kind == KindNoNumeric || kind == KindEmpty {
			outcome = observability.OutcomeEmpty
		}
		te.metrics.ObserveSource(te.Name(), outcome)
		te.logger.Warn("page scrape failed",
			zap.String("slug", slug),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return 0, "", false
	}

	te.metrics.ObserveSource(te.Name(), observability.OutcomeOK)
	te.logger.Debug("page value",
		zap.String("slug", slug),
		zap.Float64("price", price),
		zap.String("unit", unit),
	)
	return price, unit, true
}

func (te *TradingEconomics) scrape(ctx context.Context, slug string) (float64, string, error) {
	doc, err := te.fetchPage(ctx, slug)
	if err != nil {
		return 0, "", err
	}

	text := te.extractText(doc)
	if text == "" {
		return 0, "", eris.Wrapf(ErrNoData, "tradingeconomics %s: no value element", slug)
	}

	price, unit, ok := ParseNumericField(text)
	if !ok {
		return 0, "", eris.Wrapf(ErrNoNumeric, "tradingeconomics %s: %q", slug, text)
	}
	return price, unit, nil
}

// fetchPage downloads and parses the commodity page.
func (te *TradingEconomics) fetchPage(ctx context.Context, slug string) (*goquery.Document, error) {
	u := fmt.Sprintf("%s/commodity/%s", te.baseURL, url.PathEscape(slug))
	body, _, err := doGet(ctx, te.client, u, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrapf(ErrParse, "parse tradingeconomics HTML: %v", err)
	}
	return doc, nil
}

// extractText walks the selectors, then the meta fields.
func (te *TradingEconomics) extractText(doc *goquery.Document) string {
	for _, sel := range te.selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	for _, mf := range te.metaFields {
		query := fmt.Sprintf("meta[%s=%q]", mf.Attr, mf.Value)
		if content, ok := doc.Find(query).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}

// ParseNumericField splits scraped text into a price and a unit. Non-breaking
// spaces become spaces and thousands separators are dropped before the first
// numeric token is taken; whatever follows it is the unit.
func ParseNumericField(text string) (price float64, unit string, ok bool) {
	cleaned := strings.ReplaceAll(text, "\u00a0", " ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	loc := numericToken.FindStringIndex(cleaned)
	if loc == nil {
		return 0, "", false
	}
	price, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, "", false
	}
	return price, strings.TrimSpace(cleaned[loc[1]:]), true
}

// pause sleeps for the courtesy delay unless ctx is done first.
func (te *TradingEconomics) pause(ctx context.Context) {
	d := te.delayMin + time.Duration(te.rand()*float64(te.delayJitter))
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-te.clock.After(d):
	}
}
