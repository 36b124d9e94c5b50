package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/google/go-cmp/cmp"
)

const catalogPage = `<html><body><section><ol class="row">
<li><article class="product_pod">
  <h3><a href="catalogue/a-light-in-the-attic_1000/index.html" title="A Light in the Attic">A Light in the ...</a></h3>
  <p class="star-rating Three"><i class="icon-star"></i></p>
  <div class="product_price">
    <p class="price_color">£51.77</p>
    <p class="instock availability"><i class="icon-ok"></i>
        In stock (19 available)
    </p>
  </div>
</article></li>
<li><article class="product_pod">
  <h3><a href="catalogue/tipping-the-velvet_999/index.html" title="  Tipping the Velvet ">Tipping the ...</a></h3>
  <p class="star-rating Zero"></p>
  <div class="product_price">
    <p class="price_color">no price info</p>
    <p class="availability">Out of stock</p>
  </div>
</article></li>
<li><article class="product_pod">
  <h3><a href="catalogue/untitled/index.html"></a></h3>
  <p class="star-rating One"></p>
  <p class="price_color">£10.00</p>
</article></li>
<li><article class="product_pod">
  <h3><a href="catalogue/soumission_998/index.html" title="Soumission">Soumission</a></h3>
</article></li>
</ol></section></body></html>`

func newTestPage(t *testing.T, rawURL, html string) *models.Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &models.Page{URL: u, Doc: doc}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func TestClassExtractorExtract(t *testing.T) {
	page := newTestPage(t, "https://books.toscrape.com/", catalogPage)

	records, skipped := NewClassExtractor(DefaultVocabulary()).Extract(page)

	want := []models.Record{
		{Title: "A Light in the Attic", Price: floatPtr(51.77), Availability: models.InStock, Rating: intPtr(3)},
		{Title: "Tipping the Velvet", Availability: models.OutOfStock},
		{Title: "Soumission", Availability: models.OutOfStock},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
}

func TestPatternExtractorExtract(t *testing.T) {
	html := `<html><body>
<article>
  <h3><a title="Sharp Objects">Sharp Objects</a></h3>
  <p class="star-rating Four"></p>
  <p>Price: £47.82</p>
  <p>In stock</p>
</article>
<article>
  <h3><a>Only Anchor Text</a></h3>
  <p>Currently out of STOCK</p>
</article>
<article>
  <p>£12.00</p>
</article>
</body></html>`
	page := newTestPage(t, "https://books.toscrape.com/", html)

	records, skipped := NewPatternExtractor(DefaultVocabulary()).Extract(page)

	want := []models.Record{
		{Title: "Sharp Objects", Price: floatPtr(47.82), Availability: models.InStock, Rating: intPtr(4)},
		{Title: "Only Anchor Text", Availability: models.OutOfStock},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
}

func TestExtractorsAgreeOnCatalogMarkup(t *testing.T) {
	page := newTestPage(t, "https://books.toscrape.com/", catalogPage)
	vocab := DefaultVocabulary()

	byClass, _ := NewClassExtractor(vocab).Extract(page)
	byPattern, _ := NewPatternExtractor(vocab).Extract(page)

	if diff := cmp.Diff(byClass[:1], byPattern[:1]); diff != "" {
		t.Fatalf("strategies disagree on a well-formed product (-class +pattern):\n%s", diff)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	page := newTestPage(t, "https://books.toscrape.com/", `<html><body><p>nothing here</p></body></html>`)

	for _, strategy := range []string{"class", "pattern"} {
		t.Run(strategy, func(t *testing.T) {
			extractor, err := NewExtractor(strategy, DefaultVocabulary())
			if err != nil {
				t.Fatalf("new extractor: %v", err)
			}
			records, skipped := extractor.Extract(page)
			if records == nil || len(records) != 0 || skipped != 0 {
				t.Fatalf("Extract() = %v, %d, want empty non-nil slice", records, skipped)
			}
		})
	}
}

func TestExtractNilPage(t *testing.T) {
	records, skipped := NewClassExtractor(DefaultVocabulary()).Extract(nil)
	if len(records) != 0 || skipped != 0 {
		t.Fatalf("Extract(nil) = %v, %d", records, skipped)
	}
}

func TestExtractorAlternateVocabulary(t *testing.T) {
	html := `<html><body><article class="product_pod">
  <h3><a title="Le Petit Prince">Le Petit Prince</a></h3>
  <p class="star-rating Deux"></p>
  <p class="price_color">€8,50</p>
  <p class="instock availability">En stock</p>
</article></body></html>`
	vocab := NewVocabulary("€", "stock", "en stock", "star-rating", map[string]int{"Un": 1, "Deux": 2})
	page := newTestPage(t, "https://example.test/", html)

	records, _ := NewClassExtractor(vocab).Extract(page)
	want := []models.Record{
		// the comma is stripped like any other non-numeric rune
		{Title: "Le Petit Prince", Price: floatPtr(850), Availability: models.InStock, Rating: intPtr(2)},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestNewExtractorUnknownStrategy(t *testing.T) {
	if _, err := NewExtractor("xpath", DefaultVocabulary()); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
