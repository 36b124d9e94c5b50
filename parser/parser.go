// Package parser turns parsed listing pages into normalized records.
package parser

import (
	"maps"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// Vocabulary holds the fixed lookup tables used during extraction.
// The rating table is copied on construction and never exposed.
type Vocabulary struct {
	CurrencySymbol string
	StockMarker    string
	InStockPhrase  string
	RatingMarker   string

	ratingWords map[string]int
}

// NewVocabulary builds a Vocabulary. Words mapping outside 1-5 are dropped.
func NewVocabulary(currency, stockMarker, inStockPhrase, ratingMarker string, ratingWords map[string]int) Vocabulary {
	words := make(map[string]int, len(ratingWords))
	for word, n := range ratingWords {
		if n >= 1 && n <= 5 {
			words[word] = n
		}
	}
	return Vocabulary{
		CurrencySymbol: currency,
		StockMarker:    stockMarker,
		InStockPhrase:  inStockPhrase,
		RatingMarker:   ratingMarker,
		ratingWords:    words,
	}
}

// DefaultVocabulary matches the books.toscrape.com markup.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary("£", "stock", "in stock", "star-rating", map[string]int{
		"One":   1,
		"Two":   2,
		"Three": 3,
		"Four":  4,
		"Five":  5,
	})
}

// RatingFor maps a rating word to its value. Lookup is exact.
func (v Vocabulary) RatingFor(word string) (int, bool) {
	n, ok := v.ratingWords[strings.TrimSpace(word)]
	return n, ok
}

// RatingWords returns a copy of the rating table.
func (v Vocabulary) RatingWords() map[string]int {
	return maps.Clone(v.ratingWords)
}

// ParsePrice keeps only digits and decimal points and parses the rest.
// ok is false when nothing numeric remains or the remainder is malformed.
func ParsePrice(text string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '.' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, text)
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// NormalizeAvailability collapses the source wording to a canonical value.
// Anything that does not mention the in-stock phrase counts as out of stock.
func NormalizeAvailability(text string, vocab Vocabulary) models.Availability {
	phrase := strings.ToLower(vocab.InStockPhrase)
	if phrase != "" && strings.Contains(strings.ToLower(text), phrase) {
		return models.InStock
	}
	return models.OutOfStock
}

// RatingFromClasses reads the rating word from a class list such as
// "star-rating Three". Only the first token besides the marker is considered.
func RatingFromClasses(classes []string, vocab Vocabulary) (int, bool) {
	for _, class := range classes {
		if strings.EqualFold(class, vocab.RatingMarker) {
			continue
		}
		return vocab.RatingFor(class)
	}
	return 0, false
}
