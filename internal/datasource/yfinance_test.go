package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketreport/internal/observability"
)

func fptr(v float64) *float64 { return &v }

func TestLastCloseEmpty(t *testing.T) {
	_, _, ok := lastClose(yfChartResult{})
	if ok {
		t.Fatal("expected no close for empty result")
	}
}

func TestLastCloseSkipsTrailingNulls(t *testing.T) {
	result := yfChartResult{
		Timestamp: []int64{1700000000, 1700086400, 1700172800},
		Indicators: yfIndicators{
			Quote: []yfOHLCV{{Close: []*float64{fptr(101.5), fptr(103.25), nil}}},
		},
	}
	price, at, ok := lastClose(result)
	if !ok {
		t.Fatal("expected a close")
	}
	if price != 103.25 {
		t.Errorf("close = %v, want 103.25", price)
	}
	if at.Unix() != 1700086400 {
		t.Errorf("bar time = %v, want 1700086400", at.Unix())
	}
}

func TestLastCloseAllNull(t *testing.T) {
	result := yfChartResult{
		Timestamp:  []int64{1700000000},
		Indicators: yfIndicators{Quote: []yfOHLCV{{Close: []*float64{nil}}}},
	}
	if _, _, ok := lastClose(result); ok {
		t.Fatal("expected no close when every bar is null")
	}
}

func TestYFinanceName(t *testing.T) {
	yf := NewYFinance(YFinanceOptions{})
	if yf.Name() != "yfinance" {
		t.Errorf("Name() = %q, want %q", yf.Name(), "yfinance")
	}
}

func newYFinanceTest(t *testing.T, handler http.HandlerFunc) (*YFinance, *observability.Metrics, *clockwork.FakeClock) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC))
	m := observability.NewMetrics()
	yf := NewYFinance(YFinanceOptions{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		RatePerSec: 1000,
		Clock:      clock,
		Metrics:    m,
	})
	return yf, m, clock
}

func TestYFinanceLastClose(t *testing.T) {
	var gotPath, gotQuery string
	yf, m, clock := newYFinanceTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"KC=F","currency":"USX"},
			"timestamp":[1772323200,1772409600],
			"indicators":{"quote":[{"close":[398.5,403.14]}]}}],"error":null}}`)
	})

	price, ok := yf.LastClose(context.Background(), "KC=F")
	require.True(t, ok)
	assert.Equal(t, 403.14, price)
	assert.Equal(t, "/v8/finance/chart/KC=F", gotPath)

	now := clock.Now()
	assert.Contains(t, gotQuery, fmt.Sprintf("period2=%d", now.Unix()))
	assert.Contains(t, gotQuery, fmt.Sprintf("period1=%d", now.AddDate(0, 0, -400).Unix()))
	assert.Contains(t, gotQuery, "interval=1d")
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("yfinance", observability.OutcomeOK)), 0)
}

func TestYFinanceLastCloseFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome string
	}{
		{"http error", http.StatusNotFound, `not found`, observability.OutcomeError},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, observability.OutcomeEmpty},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, observability.OutcomeEmpty},
		{"empty history", http.StatusOK, `{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{"close":[]}]}}]}}`, observability.OutcomeEmpty},
		{"malformed json", http.StatusOK, `{"chart":`, observability.OutcomeError},
		{"negative close", http.StatusOK, `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[-3]}]}}]}}`, observability.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yf, m, _ := newYFinanceTest(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			price, ok := yf.LastClose(context.Background(), "ZC=F")
			assert.False(t, ok)
			assert.Zero(t, price)
			assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("yfinance", tt.outcome)), 0)
		})
	}
}

func TestYFinanceFetchErrorKinds(t *testing.T) {
	yf, _, _ := newYFinanceTest(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "MISSING"):
			w.WriteHeader(http.StatusNotFound)
		case strings.Contains(r.URL.Path, "EMPTY"):
			fmt.Fprint(w, `{"chart":{"result":[]}}`)
		default:
			fmt.Fprint(w, `<html>`)
		}
	})

	_, _, err := yf.fetchLastClose(context.Background(), "MISSING")
	assert.Equal(t, KindHTTPStatus, ErrorKind(err))
	_, _, err = yf.fetchLastClose(context.Background(), "EMPTY")
	assert.Equal(t, KindEmpty, ErrorKind(err))
	_, _, err = yf.fetchLastClose(context.Background(), "GARBAGE")
	assert.Equal(t, KindParse, ErrorKind(err))
}

func TestYFinanceTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening

	yf := NewYFinance(YFinanceOptions{BaseURL: srv.URL, RatePerSec: 1000})
	_, ok := yf.LastClose(context.Background(), "CC=F")
	assert.False(t, ok)
}
