package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"zoopla-scraper/models"
)

// CSVWriter writes price events to a CSV file with the spreadsheet's columns.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(Columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one CSV record per event.
func (c *CSVWriter) Write(events []*models.PriceEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range events {
		newPrice := ""
		if e.NewPrice != nil {
			newPrice = strconv.FormatInt(*e.NewPrice, 10)
		}
		row := []string{
			e.RowKey,
			formatDate(e.FirstListed),
			formatDate(e.ChangeDate),
			strconv.FormatInt(e.OriginalPrice, 10),
			newPrice,
			e.Beds,
			e.Type,
			e.Postcode,
			e.Address,
			e.Latitude,
			e.Longitude,
			e.URL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
