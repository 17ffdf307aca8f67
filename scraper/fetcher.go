package scraper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly"
)

// Fetcher loads a URL and returns its parsed document tree.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher performs plain GET requests through a colly collector.
type HTTPFetcher struct {
	collector *colly.Collector
}

// NewHTTPFetcher creates an HTTPFetcher. Every URL may be fetched more than
// once per run.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &HTTPFetcher{collector: c}
}

// Fetch is safe for concurrent use: each call works on its own clone of the
// base collector, which shares the underlying HTTP client.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.collector.Clone()

	var doc *goquery.Document
	var parseErr error
	c.OnResponse(func(r *colly.Response) {
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", url, parseErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("fetch %s: empty response", url)
	}
	return doc, nil
}

// BrowserFetcher renders pages in headless Chrome before parsing them, for
// result pages that only fill in their markup client-side.
type BrowserFetcher struct {
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	timeout     time.Duration
}

// NewBrowserFetcher starts a headless browser. chromeBin may be empty, in
// which case a local Chrome/Chromium is searched for.
func NewBrowserFetcher(chromeBin, userAgent string, timeout time.Duration) (*BrowserFetcher, error) {
	chromeBin = chromeBinary(chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Starts the browser so a missing binary fails here rather than mid-crawl.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &BrowserFetcher{
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
		timeout:     timeout,
	}, nil
}

// Fetch opens url in a new tab and parses the rendered DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	if f.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, f.timeout)
		defer cancelTimeout()
	}

	// chromedp contexts do not derive from the caller's, so forward its cancellation.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.cancelTab()
	f.cancelAlloc()
}

// Well-known install locations, checked after $PATH.
var chromePaths = []string{
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/snap/bin/chromium",
	"/opt/google/chrome/google-chrome",
}

// chromeBinary returns the configured browser binary, or the first
// Chrome/Chromium found on $PATH or in chromePaths. "" lets chromedp use its
// own default.
func chromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range chromePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
