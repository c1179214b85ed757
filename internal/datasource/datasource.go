// Package datasource fetches raw commodity prices. It implements the two
// report sources: daily futures closes from the Yahoo Finance chart API and
// headline values scraped from Trading Economics commodity pages.
//
// Adapters never return an error to their caller. A failed lookup is logged
// with its error kind and reported as absent, so the collector can treat
// every failure the same way.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// --- Sentinel errors ---

// ErrNoData is returned when a source answers but has no usable price.
var ErrNoData = eris.New("no price data")

// ErrNoNumeric is returned when scraped text contains no numeric token.
var ErrNoNumeric = eris.New("no numeric value in page")

// ErrParse is returned when a response body cannot be decoded.
var ErrParse = eris.New("malformed response")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Error kinds attached to adapter failure logs.
const (
	KindHTTPStatus = "http_status"
	KindEmpty      = "empty"
	KindNoNumeric  = "no_numeric"
	KindParse      = "parse"
	KindTimeout    = "timeout"
	KindCanceled   = "canceled"
	KindTransport  = "transport"
)

// ErrorKind classifies an adapter error for logs and metrics.
func ErrorKind(err error) string {
	var he *ErrHTTP
	switch {
	case err == nil:
		return ""
	case errors.As(err, &he):
		return KindHTTPStatus
	case eris.Is(err, ErrNoData):
		return KindEmpty
	case eris.Is(err, ErrNoNumeric):
		return KindNoNumeric
	case eris.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "context canceled") {
		return KindCanceled
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return KindTimeout
	}
	return KindTransport
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds every request made by an adapter.
const DefaultTimeout = 15 * time.Second

// HTTPDoer is the subset of *http.Client the adapters use.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a client with the given per-request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client HTTPDoer, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "HTTP GET %s", url)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}
