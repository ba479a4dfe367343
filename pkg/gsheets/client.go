// Package gsheets fetches public Google Sheets snapshots without an API key:
// the worksheet catalog and waffle grids come from the htmlview endpoint,
// individual tabs from the gviz CSV export.
package gsheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/panenka-league/results-cli/internal/sheet"
)

const defaultBaseURL = "https://docs.google.com"

// Worksheet is one tab of a spreadsheet.
type Worksheet struct {
	Name string `json:"name"`
	GID  string `json:"gid"`
}

// catalogRe scrapes worksheet metadata out of the htmlview bootstrap script.
var catalogRe = regexp.MustCompile(`(?s)items\.push\(\{name: "([^"]+)",.*?gid: "(\d+)"`)

// Options configures a Client.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	RatePerSec float64
	BaseURL    string // overridden in tests
}

// Client is a polite, rate-limited snapshot fetcher.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates a Client with sane defaults: 30s timeout, 1 request/sec.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "results-cli/1.0"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		opts:    opts,
	}
}

// Catalog lists the worksheets of a spreadsheet with their gids.
func (c *Client) Catalog(ctx context.Context, spreadsheetID string) ([]Worksheet, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/spreadsheets/d/%s/htmlview", c.opts.BaseURL, spreadsheetID))
	if err != nil {
		return nil, err
	}

	matches := catalogRe.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return nil, eris.New("gsheets: no worksheet metadata found; is the spreadsheet shared publicly?")
	}
	worksheets := make([]Worksheet, 0, len(matches))
	for _, match := range matches {
		worksheets = append(worksheets, Worksheet{Name: match[1], GID: match[2]})
	}
	return worksheets, nil
}

// FetchCSV downloads one worksheet as a grid via the gviz CSV export.
func (c *Client) FetchCSV(ctx context.Context, spreadsheetID, gid string) (sheet.Grid, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&gid=%s", c.opts.BaseURL, spreadsheetID, gid)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	text := strings.TrimPrefix(string(body), "\ufeff")
	grid, err := sheet.ReadCSV(strings.NewReader(text))
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: parse csv of gid %s", gid)
	}
	return grid, nil
}

// FetchWaffle downloads the htmlview snapshot and parses every waffle table.
func (c *Client) FetchWaffle(ctx context.Context, spreadsheetID string) ([]sheet.Grid, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/spreadsheets/d/%s/htmlview", c.opts.BaseURL, spreadsheetID))
	if err != nil {
		return nil, err
	}
	return sheet.ParseWaffle(strings.NewReader(string(body)))
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gsheets: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: build request %s", url)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	zap.L().Debug("fetching sheet resource", zap.String("url", url))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: get %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Errorf("gsheets: resource not found: %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("gsheets: unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "gsheets: read body of %s", url)
	}
	return body, nil
}
