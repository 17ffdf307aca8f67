package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"zoopla-scraper/models"
)

const eventColumns = 14

// PostgresWriter mirrors price events into PostgreSQL. Rows are keyed by
// row key and never updated, matching the spreadsheet's first-write-wins rule.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a writer that tags new rows with runID.
func NewPostgresWriter(dsn, runID string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_events (
			row_key        TEXT        PRIMARY KEY,
			listing_id     TEXT        NOT NULL,
			first_listed   DATE,
			change_date    DATE,
			original_price BIGINT      NOT NULL DEFAULT 0,
			new_price      BIGINT,
			beds           TEXT        NOT NULL DEFAULT '',
			type           TEXT        NOT NULL DEFAULT '',
			postcode       TEXT        NOT NULL DEFAULT '',
			address        TEXT        NOT NULL DEFAULT '',
			latitude       TEXT        NOT NULL DEFAULT '',
			longitude      TEXT        NOT NULL DEFAULT '',
			url            TEXT        NOT NULL DEFAULT '',
			run_id         TEXT        NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_price_events_listing  ON price_events(listing_id);
		CREATE INDEX IF NOT EXISTS idx_price_events_postcode ON price_events(postcode);
	`)
	return err
}

// Write batch-inserts events; rows whose key already exists are left alone.
func (pw *PostgresWriter) Write(events []*models.PriceEvent) error {
	const batchSize = 50
	for i := 0; i < len(events); i += batchSize {
		end := i + batchSize
		if end > len(events) {
			end = len(events)
		}
		query, args := buildInsert(events[i:end], pw.runID)
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}
	return nil
}

func buildInsert(batch []*models.PriceEvent, runID string) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*eventColumns)

	for idx, e := range batch {
		base := idx * eventColumns
		placeholders := make([]string, eventColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			e.RowKey, e.ListingID, e.FirstListed, e.ChangeDate, e.OriginalPrice, e.NewPrice,
			e.Beds, e.Type, e.Postcode, e.Address, e.Latitude, e.Longitude, e.URL, runID)
	}

	query := fmt.Sprintf(`
		INSERT INTO price_events (row_key, listing_id, first_listed, change_date, original_price,
			new_price, beds, type, postcode, address, latitude, longitude, url, run_id)
		VALUES %s
		ON CONFLICT (row_key) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored events, used by the insight service.
func (pw *PostgresWriter) FetchAll() ([]*models.PriceEvent, error) {
	rows, err := pw.db.Query(`
		SELECT row_key, listing_id, first_listed, change_date, original_price, new_price,
		       beds, type, postcode, address, latitude, longitude, url
		FROM price_events
		ORDER BY row_key
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var events []*models.PriceEvent
	for rows.Next() {
		e := &models.PriceEvent{}
		var firstListed, changeDate sql.NullTime
		var newPrice sql.NullInt64
		if err := rows.Scan(
			&e.RowKey, &e.ListingID, &firstListed, &changeDate, &e.OriginalPrice, &newPrice,
			&e.Beds, &e.Type, &e.Postcode, &e.Address, &e.Latitude, &e.Longitude, &e.URL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if firstListed.Valid {
			e.FirstListed = &firstListed.Time
		}
		if changeDate.Valid {
			e.ChangeDate = &changeDate.Time
		}
		if newPrice.Valid {
			e.NewPrice = &newPrice.Int64
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
