package zoopla

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"zoopla-scraper/config"
	"zoopla-scraper/models"
	"zoopla-scraper/scraper"
	"zoopla-scraper/utils"
)

// Sink receives the events of each scraped property. Merge is only called
// from the crawl goroutine.
type Sink interface {
	Merge(events []*models.PriceEvent) int
}

// Summary counts what a crawl did.
type Summary struct {
	PagesFound     int
	PagesVisited   int
	PagesFailed    int
	UniqueListings int
	Properties     int
	OK             int
	Partial        int
	Failed         int
	RowsAdded      int
}

// Crawler walks the search-result pages and scrapes every listed property.
type Crawler struct {
	cfg     *config.Config
	fetcher scraper.Fetcher
	logger  *utils.Logger
	retry   *utils.RetryConfig
	seen    *utils.IDSet
}

// New creates a Crawler. The fetcher is used for search and property pages alike.
func New(cfg *config.Config, fetcher scraper.Fetcher, logger *utils.Logger) *Crawler {
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen: utils.NewIDSet(),
	}
}

// Run discovers the number of result pages, then visits them one at a time,
// merging every property's events into sink as the page completes. It only
// fails when the first search page cannot be loaded.
func (c *Crawler) Run(ctx context.Context, sink Sink) (*Summary, error) {
	sum := &Summary{}

	first, err := c.fetch(ctx, c.cfg.SearchURL)
	if err != nil {
		return sum, fmt.Errorf("zoopla: load search page: %w", err)
	}

	maxPage := DiscoverPageCount(first)
	pages := PageRange(maxPage, c.cfg.IncludeLastPage)
	sum.PagesFound = maxPage
	c.logger.Info("[zoopla] Screening complete: %d pages found, accessing first %d pages",
		maxPage, c.cfg.MaxPages)

	for _, page := range pages {
		if page > c.cfg.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			c.logger.Warn("[zoopla] Stopping before page %d: %v", page, err)
			break
		}

		pageURL := PageURL(c.cfg.SearchURL, c.cfg.PageParam, page)
		c.logger.Info("[zoopla] Accessing: %s", pageURL)

		doc, err := c.fetch(ctx, pageURL)
		if err != nil {
			c.logger.Error("[zoopla] Page %d failed: %v", page, err)
			sum.PagesFailed++
			continue
		}
		sum.PagesVisited++

		ids := c.freshIDs(ExtractListingIDs(doc))
		for _, res := range c.scrapeProperties(ctx, ids) {
			c.record(sum, res)
			sum.RowsAdded += sink.Merge(res.Events)
		}

		c.logger.Info("[zoopla] Page %d done: %d properties, %d rows added so far",
			page, len(ids), sum.RowsAdded)
	}

	sum.UniqueListings = c.seen.Size()
	c.logger.Info("[zoopla] Crawl complete: %d unique listings, %d properties (%d ok, %d partial, %d failed), %d new rows",
		sum.UniqueListings, sum.Properties, sum.OK, sum.Partial, sum.Failed, sum.RowsAdded)
	return sum, nil
}

// freshIDs drops ids already scraped earlier in this run.
func (c *Crawler) freshIDs(ids []string) []string {
	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !c.seen.Add(id) {
			c.logger.Debug("[zoopla] Skipping already scraped listing %s", id)
			continue
		}
		fresh = append(fresh, id)
	}
	return fresh
}

// scrapeProperties runs one task per id and returns the results in completion
// order. Sequential mode is the same pool with a single worker.
func (c *Crawler) scrapeProperties(ctx context.Context, ids []string) []models.PropertyResult {
	workers := c.cfg.Workers
	if c.cfg.Mode == config.ModeSequential {
		workers = 1
	}
	pool := utils.NewWorkerPool(workers, c.cfg.RateLimitMs)
	c.logger.Debug("[zoopla] Dispatching %d properties over %d workers", len(ids), pool.Size())

	results := make(chan models.PropertyResult, len(ids))
	for _, id := range ids {
		id := id
		pool.Submit(func() {
			results <- c.scrapeProperty(ctx, id)
		})
	}
	pool.Wait()
	close(results)

	out := make([]models.PropertyResult, 0, len(ids))
	for res := range results {
		out = append(out, res)
	}
	return out
}

// scrapeProperty fetches and extracts a single property. It never panics:
// anything going wrong ends up in the returned result.
func (c *Crawler) scrapeProperty(ctx context.Context, id string) (res models.PropertyResult) {
	url := PropertyURL(c.cfg.PropertyURLTemplate, c.cfg.IDPlaceholder, id)

	defer func() {
		if r := recover(); r != nil {
			res = models.PropertyResult{
				ListingID: id,
				URL:       url,
				Status:    models.StatusFailed,
				Err:       fmt.Errorf("zoopla: panic scraping %s: %v", id, r),
			}
		}
	}()

	c.logger.Debug("[zoopla] Viewing property: %s", id)
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return models.PropertyResult{ListingID: id, URL: url, Status: models.StatusFailed, Err: err}
	}
	return ExtractProperty(doc, id, url)
}

func (c *Crawler) record(sum *Summary, res models.PropertyResult) {
	sum.Properties++
	switch res.Status {
	case models.StatusOK:
		sum.OK++
	case models.StatusPartial:
		sum.Partial++
		c.logger.Warn("[zoopla] Property %s: kept %d events: %v", res.ListingID, len(res.Events), res.Err)
	default:
		sum.Failed++
		c.logger.Error("[zoopla] Error viewing property %s: %v", res.ListingID, res.Err)
	}
}

func (c *Crawler) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := c.retry.Do(ctx, "fetch "+url, func() error {
		var err error
		doc, err = c.fetcher.Fetch(ctx, url)
		return err
	})
	return doc, err
}
