package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/pkg/models"
)

// DefaultYahooBaseURL is the Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// DefaultHistoryDays is how far back the daily series is requested.
const DefaultHistoryDays = 400

// YFinanceOptions configures a YFinance source. Zero values take defaults.
type YFinanceOptions struct {
	BaseURL     string
	Timeout     time.Duration
	HistoryDays int
	RatePerSec  float64
	Client      HTTPDoer // overrides Timeout when set
	Clock       clockwork.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// YFinance reads daily futures closes from the Yahoo Finance chart API.
type YFinance struct {
	baseURL     string
	client      HTTPDoer
	historyDays int
	limiter     *rate.Limiter
	clock       clockwork.Clock
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewYFinance creates a new Yahoo Finance series source.
func NewYFinance(opts YFinanceOptions) *YFinance {
	y := &YFinance{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      NewHTTPClient(opts.Timeout),
		historyDays: opts.HistoryDays,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if opts.Client != nil {
		y.client = opts.Client
	}
	if y.baseURL == "" {
		y.baseURL = DefaultYahooBaseURL
	}
	if y.historyDays <= 0 {
		y.historyDays = DefaultHistoryDays
	}
	if y.clock == nil {
		y.clock = clockwork.NewRealClock()
	}
	if y.logger == nil {
		y.logger = zap.NewNop()
	}
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = 5 // 5 req/s
	}
	y.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return string(models.SourceSeries) }

// --- Yahoo Finance v8 chart API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Close []*float64 `json:"close"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// LastClose returns the most recent daily close for symbol. The second value
// is false when the series is empty or the request failed; the cause is
// logged here and not returned.
func (y *YFinance) LastClose(ctx context.Context, symbol string) (float64, bool) {
	price, at, err := y.fetchLastClose(ctx, symbol)
	if err != nil {
		kind := ErrorKind(err)
		outcome := observability.OutcomeError
		if kind == KindEmpty {
			outcome = observability.OutcomeEmpty
		}
		y.metrics.ObserveSource(y.Name(), outcome)
		y.logger.Warn("series fetch failed",
			zap.String("symbol", symbol),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return 0, false
	}

	y.metrics.ObserveSource(y.Name(), observability.OutcomeOK)
	y.logger.Debug("series close",
		zap.String("symbol", symbol),
		zap.Float64("close", price),
		zap.Time("bar", at),
	)
	return price, true
}

func (y *YFinance) fetchLastClose(ctx context.Context, symbol string) (float64, time.Time, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return 0, time.Time{}, eris.Wrap(err, "rate limiter")
	}

	to := y.clock.Now()
	from := to.AddDate(0, 0, -y.historyDays)
	u := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix(),
	)

	body, _, err := doGet(ctx, y.client, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return 0, time.Time{}, eris.Wrap(err, "read response")
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, time.Time{}, eris.Wrapf(ErrParse, "yfinance chart %s: %v", symbol, err)
	}
	if resp.Chart.Error != nil {
		return 0, time.Time{}, eris.Wrapf(ErrNoData, "yfinance chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return 0, time.Time{}, eris.Wrapf(ErrNoData, "yfinance chart %s: no result", symbol)
	}

	price, at, ok := lastClose(resp.Chart.Result[0])
	if !ok {
		return 0, time.Time{}, eris.Wrapf(ErrNoData, "yfinance chart %s: empty history", symbol)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, time.Time{}, eris.Wrapf(ErrParse, "yfinance chart %s: invalid close %v", symbol, price)
	}
	return price, at, nil
}

// lastClose returns the latest bar with a non-null close. Yahoo emits nulls
// for sessions without trades.
func lastClose(result yfChartResult) (float64, time.Time, bool) {
	if len(result.Indicators.Quote) == 0 {
		return 0, time.Time{}, false
	}
	closes := result.Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] == nil {
			continue
		}
		var at time.Time
		if i < len(result.Timestamp) {
			at = time.Unix(result.Timestamp[i], 0).UTC()
		}
		return *closes[i], at, true
	}
	return 0, time.Time{}, false
}
