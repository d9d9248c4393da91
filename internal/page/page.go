// Package page fetches web pages and extracts their visible text.
package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
)

// MaxBodySize bounds how much of a page is read.
const MaxBodySize = 5 << 20

const userAgent = "gido-monitor/1.0"

// Fetcher downloads a page over HTTP and returns its text content.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
// A nil client gets a default one.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	c.Timeout = timeout
	return &Fetcher{client: &c}
}

// Timeout returns the per-request timeout.
func (f *Fetcher) Timeout() time.Duration {
	return f.client.Timeout
}

// Fetch GETs url and returns the page's text. Transport failures, timeouts
// and non-2xx statuses are returned as FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.FetchError(url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	logging.Debug("fetching page", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.FetchError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return "", errors.FetchError(url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	text, err := Text(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return "", errors.FetchError(url, err)
	}
	return text, nil
}

// Text parses r as HTML and returns the document's text content with runs
// of whitespace collapsed to single spaces, so phrases split across lines
// or elements still read as one sentence.
func Text(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
