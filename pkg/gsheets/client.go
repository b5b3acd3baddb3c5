// Package gsheets fetches published Google Sheets tabs as CSV via the gviz
// export endpoint. No credentials are needed for sheets shared by link.
package gsheets

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the sheet export operations.
type Client interface {
	// FetchTab downloads one tab of the spreadsheet and returns its rows,
	// header first.
	FetchTab(ctx context.Context, tab string) ([][]string, error)
}

// Option configures the gsheets client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	sheetID string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for one spreadsheet.
func NewClient(sheetID string, opts ...Option) Client {
	c := &httpClient{
		sheetID: sheetID,
		baseURL: "https://docs.google.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// The gviz endpoint throttles aggressively; two requests per
		// second is enough for a handful of category tabs.
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchTab(ctx context.Context, tab string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gsheets: rate limiter")
	}

	reqURL := c.baseURL + "/spreadsheets/d/" + url.PathEscape(c.sheetID) +
		"/gviz/tq?tqx=out:csv&sheet=" + url.QueryEscape(tab)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gsheets: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: fetch tab %q", tab)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: read tab %q", tab)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("gsheets: tab %q: unexpected status %d", tab, resp.StatusCode)
	}

	// A wrong tab name (accents, spaces) makes the endpoint return an HTML
	// error page with status 200.
	if looksLikeHTML(body) {
		return nil, eris.Errorf("gsheets: tab %q returned HTML instead of CSV; check the exact tab name", tab)
	}

	return parseCSV(body, tab)
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 64)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func parseCSV(body []byte, tab string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "gsheets: parse tab %q", tab)
		}
		rows = append(rows, record)
	}
}
