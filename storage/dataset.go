package storage

import "zoopla-scraper/models"

// Dataset is the in-memory price-event table keyed by row key. The first row
// stored under a key is kept; later rows with the same key are dropped.
// It is not safe for concurrent use: merges happen on the crawl goroutine.
type Dataset struct {
	rows  []*models.PriceEvent
	index map[string]struct{}
}

// NewDataset creates an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[string]struct{})}
}

// Merge appends every event whose row key is not present yet and returns how
// many were added. Merging the same events twice is a no-op the second time.
func (d *Dataset) Merge(events []*models.PriceEvent) int {
	added := 0
	for _, e := range events {
		if e == nil || e.RowKey == "" {
			continue
		}
		if d.Has(e.RowKey) {
			continue
		}
		d.index[e.RowKey] = struct{}{}
		d.rows = append(d.rows, e)
		added++
	}
	return added
}

// Has reports whether a row with the given key is stored.
func (d *Dataset) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the rows in insertion order.
func (d *Dataset) Rows() []*models.PriceEvent {
	out := make([]*models.PriceEvent, len(d.rows))
	copy(out, d.rows)
	return out
}
