package models

import "time"

// PriceEvent is one row of the dataset: either the original listing of a
// property (sequence 0) or one of its later price reductions.
type PriceEvent struct {
	RowKey        string
	ListingID     string
	FirstListed   *time.Time
	ChangeDate    *time.Time
	OriginalPrice int64
	NewPrice      *int64
	Beds          string
	Type          string
	Postcode      string
	Address       string
	Latitude      string
	Longitude     string
	URL           string
}

// IsReduction reports whether the event records a price change rather than
// the original listing.
func (e *PriceEvent) IsReduction() bool {
	return e.NewPrice != nil
}

// PropertyStatus classifies the outcome of scraping a single property page.
type PropertyStatus string

const (
	StatusOK      PropertyStatus = "ok"
	StatusPartial PropertyStatus = "partial"
	StatusFailed  PropertyStatus = "failed"
)

// PropertyResult is what a fetch+extract task hands back to the crawler.
// Events may be non-empty even when Err is set (partial extraction).
type PropertyResult struct {
	ListingID string
	URL       string
	Events    []*PriceEvent
	Status    PropertyStatus
	Err       error
}

// InsightReport holds the computed analytics over the price-event table.
type InsightReport struct {
	TotalProperties     int
	TotalEvents         int
	Reductions          int
	ReducedProperties   int
	AverageReductionPct float64
	BiggestDrop         *PriceEvent
	BiggestDropAmount   int64
	MedianOriginalPrice int64
	EventsByPostcode    map[string]int
	PropertiesByType    map[string]int
}
