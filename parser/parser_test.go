package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "with currency symbol", input: "£51.77", want: 51.77, wantOK: true},
		{name: "mis-decoded currency", input: "Â£10.50", want: 10.50, wantOK: true},
		{name: "with whitespace", input: "  £10.50  ", want: 10.50, wantOK: true},
		{name: "already clean", input: "25.99", want: 25.99, wantOK: true},
		{name: "multiple symbols", input: "£ 99.99 £", want: 99.99, wantOK: true},
		{name: "no digits", input: "no price info", wantOK: false},
		{name: "empty string", input: "", wantOK: false},
		{name: "dot only", input: "£.", wantOK: false},
		{name: "two decimal points", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRatingFromClasses(t *testing.T) {
	vocab := DefaultVocabulary()
	tests := []struct {
		name    string
		classes []string
		want    int
		wantOK  bool
	}{
		{name: "Three", classes: []string{"star-rating", "Three"}, want: 3, wantOK: true},
		{name: "One", classes: []string{"star-rating", "One"}, want: 1, wantOK: true},
		{name: "Five", classes: []string{"star-rating", "Five"}, want: 5, wantOK: true},
		{name: "marker after word", classes: []string{"Four", "star-rating"}, want: 4, wantOK: true},
		{name: "Zero is not a rating", classes: []string{"star-rating", "Zero"}, wantOK: false},
		{name: "lowercase word", classes: []string{"star-rating", "three"}, wantOK: false},
		{name: "marker only", classes: []string{"star-rating"}, wantOK: false},
		{name: "no classes", classes: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RatingFromClasses(tt.classes, vocab)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RatingFromClasses(%v) = %d, %v, want %d, %v", tt.classes, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeAvailability(t *testing.T) {
	vocab := DefaultVocabulary()
	tests := []struct {
		name  string
		input string
		want  models.Availability
	}{
		{name: "in stock with count", input: "In stock (19 available)", want: models.InStock},
		{name: "padded", input: "\n    In stock\n  ", want: models.InStock},
		{name: "upper case", input: "IN STOCK", want: models.InStock},
		{name: "out of stock", input: "Out of stock", want: models.OutOfStock},
		{name: "missing marker", input: "", want: models.OutOfStock},
		{name: "unrelated text", input: "Ships in 3 days", want: models.OutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAvailability(tt.input, vocab); got != tt.want {
				t.Errorf("NormalizeAvailability(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVocabularyIsolatedFromCaller(t *testing.T) {
	words := map[string]int{"Uno": 1, "Dos": 2, "Diez": 10}
	vocab := NewVocabulary("€", "stock", "in stock", "star-rating", words)

	words["Uno"] = 5
	if got, ok := vocab.RatingFor("Uno"); !ok || got != 1 {
		t.Fatalf("RatingFor(Uno) = %d, %v, want 1, true", got, ok)
	}
	if _, ok := vocab.RatingFor("Diez"); ok {
		t.Fatalf("out-of-range word should be dropped")
	}

	copied := vocab.RatingWords()
	copied["Dos"] = 4
	if got, _ := vocab.RatingFor("Dos"); got != 2 {
		t.Fatalf("RatingWords must return a copy, got %d", got)
	}
}
