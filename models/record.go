// Package models defines data structures for the scraper.
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Availability is the canonical stock status of a product.
type Availability string

const (
	InStock    Availability = "InStock"
	OutOfStock Availability = "OutOfStock"
)

// Valid reports whether a is one of the canonical values.
func (a Availability) Valid() bool {
	return a == InStock || a == OutOfStock
}

// Record represents one product scraped from a listing page.
// Nil Price and Rating mean the value was absent or unparseable.
type Record struct {
	Title        string       `json:"title"`
	Price        *float64     `json:"price"`
	Availability Availability `json:"availability"`
	Rating       *int         `json:"rating"`
}

// Valid checks the record invariants.
func (r Record) Valid() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record missing title")
	}
	if !r.Availability.Valid() {
		return fmt.Errorf("record %q has non-canonical availability %q", r.Title, r.Availability)
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return fmt.Errorf("record %q has rating %d outside 1-5", r.Title, *r.Rating)
	}
	return nil
}

// Page is one fetched and parsed listing document.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// StopReason explains why a crawl ended.
type StopReason string

const (
	StopExhausted   StopReason = "exhausted"
	StopFetchFailed StopReason = "fetch_failed"
	StopMaxPages    StopReason = "max_pages"
	StopCancelled   StopReason = "cancelled"
)

// RunResult holds the overall result of a crawl.
type RunResult struct {
	RunID        string
	Records      []Record
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	SkippedCount int
	StopReason   StopReason
	FailedURL    string
	ErrorType    string
	// Aborted is set when a fetch failure ended the run under the hard policy.
	Aborted bool
}

// Summary holds statistics computed over a run's records.
type Summary struct {
	Total           int         `json:"total"`
	PricedCount     int         `json:"priced_count"`
	MissingPrice    int         `json:"missing_price"`
	PricedFraction  float64     `json:"priced_fraction"`
	AveragePrice    *float64    `json:"average_price"`
	RatedCount      int         `json:"rated_count"`
	AverageRating   *float64    `json:"average_rating"`
	RatingHistogram map[int]int `json:"rating_histogram"`
	InStockCount    int         `json:"in_stock_count"`
}
