package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"zoopla-scraper/models"
)

const (
	sheetName  = "Sheet1"
	dateLayout = "2006-01-02"
)

// Column headers of the persisted spreadsheet, in order.
const (
	ColIdentifier    = "Identifier"
	ColFirstListed   = "First listed date"
	ColChangeDate    = "Changes date"
	ColOriginalPrice = "Original price"
	ColNewPrice      = "New price"
	ColBeds          = "Beds"
	ColType          = "Type"
	ColPostcode      = "Post code"
	ColAddress       = "Address"
	ColLatitude      = "Latitude"
	ColLongitude     = "Longitude"
	ColURL           = "URL"
)

// Columns lists the spreadsheet headers in the order they are written.
var Columns = []string{
	ColIdentifier, ColFirstListed, ColChangeDate, ColOriginalPrice, ColNewPrice,
	ColBeds, ColType, ColPostcode, ColAddress, ColLatitude, ColLongitude, ColURL,
}

// Spreadsheets written by other tools may carry dates in any of these forms.
var cellDateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/06 15:04",
	"01-02-06",
	"1/2/2006",
}

// LoadDataset hydrates a Dataset from a spreadsheet written by Persist. A
// missing file yields an empty Dataset and no error.
func LoadDataset(path string) (*Dataset, error) {
	d := NewDataset()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, nil
		}
		return nil, fmt.Errorf("xlsx: stat %q: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return d, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx: read rows: %w", err)
	}
	if len(rows) == 0 {
		return d, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	if _, ok := header[ColIdentifier]; !ok {
		return nil, fmt.Errorf("xlsx: %q has no %q column", path, ColIdentifier)
	}

	events := make([]*models.PriceEvent, 0, len(rows)-1)
	for n, cells := range rows[1:] {
		e, err := parseRow(header, cells)
		if err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", n+2, err)
		}
		if e != nil {
			events = append(events, e)
		}
	}
	d.Merge(events)
	return d, nil
}

// Persist writes the full table to path, replacing any existing file.
func (d *Dataset) Persist(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("xlsx: create output dir: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, e := range d.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := sw.SetRow(cell, eventCells(e)); err != nil {
			return fmt.Errorf("xlsx: write row %s: %w", e.RowKey, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}

func eventCells(e *models.PriceEvent) []interface{} {
	return []interface{}{
		e.RowKey,
		formatDate(e.FirstListed),
		formatDate(e.ChangeDate),
		e.OriginalPrice,
		formatPrice(e.NewPrice),
		e.Beds,
		e.Type,
		e.Postcode,
		e.Address,
		e.Latitude,
		e.Longitude,
		e.URL,
	}
}

func parseRow(header map[string]int, cells []string) (*models.PriceEvent, error) {
	get := func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	key := strings.TrimSpace(get(ColIdentifier))
	if key == "" {
		return nil, nil
	}

	e := &models.PriceEvent{
		RowKey:      key,
		ListingID:   ListingIDFromKey(key),
		FirstListed: parseDate(get(ColFirstListed)),
		ChangeDate:  parseDate(get(ColChangeDate)),
		Beds:        get(ColBeds),
		Type:        get(ColType),
		Postcode:    get(ColPostcode),
		Address:     get(ColAddress),
		Latitude:    get(ColLatitude),
		Longitude:   get(ColLongitude),
		URL:         get(ColURL),
	}

	if raw := strings.TrimSpace(get(ColOriginalPrice)); raw != "" {
		p, err := parsePrice(raw)
		if err != nil {
			return nil, fmt.Errorf("original price %q: %w", raw, err)
		}
		e.OriginalPrice = p
	}
	if raw := strings.TrimSpace(get(ColNewPrice)); raw != "" {
		p, err := parsePrice(raw)
		if err != nil {
			return nil, fmt.Errorf("new price %q: %w", raw, err)
		}
		e.NewPrice = &p
	}
	return e, nil
}

// ListingIDFromKey strips the "_<sequence>" suffix of a row key.
func ListingIDFromKey(key string) string {
	if i := strings.LastIndex(key, "_"); i > 0 {
		return key[:i]
	}
	return key
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatPrice(p *int64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// parsePrice accepts integer cells as well as float renderings such as
// "350000.0" left behind by other spreadsheet writers.
func parsePrice(raw string) (int64, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
