package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
)

// Extractor pulls records out of one listing page.
type Extractor interface {
	// Extract returns the page's records in document order and the number
	// of product containers dropped because they had no title.
	Extract(page *models.Page) ([]models.Record, int)
}

// NewExtractor returns the extractor registered for strategy.
func NewExtractor(strategy string, vocab Vocabulary) (Extractor, error) {
	switch strategy {
	case config.StrategyClass:
		return NewClassExtractor(vocab), nil
	case config.StrategyPattern:
		return NewPatternExtractor(vocab), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", strategy)
	}
}

// ClassExtractor locates fields by their CSS classes.
type ClassExtractor struct {
	vocab Vocabulary

	Container    string
	Title        string
	Price        string
	Availability []string
	Rating       string
}

// NewClassExtractor returns an extractor using the catalogue's class names.
func NewClassExtractor(vocab Vocabulary) *ClassExtractor {
	return &ClassExtractor{
		vocab:        vocab,
		Container:    "article.product_pod",
		Title:        "h3 a",
		Price:        "p.price_color",
		Availability: []string{"p.instock.availability", "p.availability"},
		Rating:       "p.star-rating",
	}
}

// Extract reads every product_pod article on the page.
func (e *ClassExtractor) Extract(page *models.Page) ([]models.Record, int) {
	return extractAll(page, e.Container, e.extractOne)
}

func (e *ClassExtractor) extractOne(s *goquery.Selection) (models.Record, bool) {
	title := strings.TrimSpace(s.Find(e.Title).First().AttrOr("title", ""))
	if title == "" {
		return models.Record{}, false
	}

	record := models.Record{Title: title}
	if price, ok := ParsePrice(s.Find(e.Price).First().Text()); ok {
		record.Price = &price
	}

	availability := ""
	for _, selector := range e.Availability {
		availability = strings.TrimSpace(s.Find(selector).First().Text())
		if availability != "" {
			break
		}
	}
	record.Availability = NormalizeAvailability(availability, e.vocab)

	classes := strings.Fields(s.Find(e.Rating).First().AttrOr("class", ""))
	if rating, ok := RatingFromClasses(classes, e.vocab); ok {
		record.Rating = &rating
	}
	return record, true
}

// PatternExtractor finds fields by what their text looks like rather than
// by class names, for markup whose classes drift.
type PatternExtractor struct {
	vocab Vocabulary

	Container string
}

// NewPatternExtractor returns an extractor that treats every article as a product.
func NewPatternExtractor(vocab Vocabulary) *PatternExtractor {
	return &PatternExtractor{vocab: vocab, Container: "article"}
}

// Extract reads every article on the page using text heuristics.
func (e *PatternExtractor) Extract(page *models.Page) ([]models.Record, int) {
	return extractAll(page, e.Container, e.extractOne)
}

func (e *PatternExtractor) extractOne(s *goquery.Selection) (models.Record, bool) {
	anchor := s.Find("h3 a").First()
	title := strings.TrimSpace(anchor.AttrOr("title", ""))
	if title == "" {
		title = strings.TrimSpace(anchor.Text())
	}
	if title == "" {
		return models.Record{}, false
	}

	record := models.Record{Title: title}
	paragraphs := s.Find("p")

	if e.vocab.CurrencySymbol != "" {
		priceTag := paragraphs.FilterFunction(func(_ int, p *goquery.Selection) bool {
			return strings.Contains(p.Text(), e.vocab.CurrencySymbol)
		}).First()
		if price, ok := ParsePrice(priceTag.Text()); ok {
			record.Price = &price
		}
	}

	marker := strings.ToLower(e.vocab.StockMarker)
	stockTag := paragraphs.FilterFunction(func(_ int, p *goquery.Selection) bool {
		return marker != "" && strings.Contains(strings.ToLower(p.Text()), marker)
	}).First()
	record.Availability = NormalizeAvailability(stockTag.Text(), e.vocab)

	ratingTag := paragraphs.FilterFunction(func(_ int, p *goquery.Selection) bool {
		return e.vocab.RatingMarker != "" && strings.Contains(p.AttrOr("class", ""), e.vocab.RatingMarker)
	}).First()
	if rating, ok := RatingFromClasses(strings.Fields(ratingTag.AttrOr("class", "")), e.vocab); ok {
		record.Rating = &rating
	}
	return record, true
}

func extractAll(page *models.Page, container string, one func(*goquery.Selection) (models.Record, bool)) ([]models.Record, int) {
	records := []models.Record{}
	if page == nil || page.Doc == nil {
		return records, 0
	}

	skipped := 0
	page.Doc.Find(container).Each(func(i int, s *goquery.Selection) {
		record, ok := one(s)
		if !ok {
			skipped++
			slog.Warn("skipping product without title",
				slog.String("url", pageURL(page)),
				slog.Int("index", i),
			)
			return
		}
		records = append(records, record)
	})
	return records, skipped
}

func pageURL(page *models.Page) string {
	if page.URL == nil {
		return ""
	}
	return page.URL.String()
}
