package storage

import "zoopla-scraper/models"

// EventWriter is the interface any secondary sink for price events must
// satisfy. The spreadsheet written by Dataset.Persist stays the source of truth.
type EventWriter interface {
	Write(events []*models.PriceEvent) error
	Close() error
}
