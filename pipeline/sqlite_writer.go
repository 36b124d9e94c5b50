package pipeline

import (
	"database/sql"
	"fmt"

	"github.com/aluiziolira/go-scrape-catalog/models"
	_ "modernc.org/sqlite"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT    NOT NULL,
	price        REAL,
	availability TEXT    NOT NULL CHECK (availability IN ('InStock', 'OutOfStock')),
	rating       INTEGER CHECK (rating BETWEEN 1 AND 5)
);`

// SQLiteWriter stores records in a SQLite database file.
// Rows are inserted in crawl order, so id order matches the CSV row order.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) filename and replaces any previous run's rows.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	if err := ensureParentDir(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createRecordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM records`); err != nil {
		db.Close()
		return nil, fmt.Errorf("clear records table: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// Write inserts records in a single transaction.
func (sw *SQLiteWriter) Write(records []models.Record) (err error) {
	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO records (title, price, availability, rating) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		var price sql.NullFloat64
		if record.Price != nil {
			price = sql.NullFloat64{Float64: *record.Price, Valid: true}
		}
		var rating sql.NullInt64
		if record.Rating != nil {
			rating = sql.NullInt64{Int64: int64(*record.Rating), Valid: true}
		}
		if _, err = stmt.Exec(record.Title, price, string(record.Availability), rating); err != nil {
			return fmt.Errorf("insert %q: %w", record.Title, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}

// Validate checks the records table is readable.
func (sw *SQLiteWriter) Validate() error {
	var count int
	if err := sw.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	return nil
}

// ReadAll returns the stored records in insertion order.
func (sw *SQLiteWriter) ReadAll() ([]models.Record, error) {
	rows, err := sw.db.Query(`SELECT title, price, availability, rating FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			record       models.Record
			price        sql.NullFloat64
			availability string
			rating       sql.NullInt64
		)
		if err := rows.Scan(&record.Title, &price, &availability, &rating); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record.Availability = models.Availability(availability)
		if price.Valid {
			p := price.Float64
			record.Price = &p
		}
		if rating.Valid {
			r := int(rating.Int64)
			record.Rating = &r
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
