package parser

import (
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// Navigator finds the link to the following listing page.
type Navigator struct {
	Selector string
}

// NewNavigator returns a Navigator for the catalogue pager.
func NewNavigator() *Navigator {
	return &Navigator{Selector: "li.next a"}
}

// Next resolves the next page URL against the page's own URL.
// It reports false when the page has no usable next link.
func (n *Navigator) Next(page *models.Page) (*url.URL, bool) {
	if page == nil || page.Doc == nil {
		return nil, false
	}

	href, ok := page.Doc.Find(n.Selector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return nil, false
	}

	target, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if page.URL == nil {
		if !target.IsAbs() {
			return nil, false
		}
		return target, true
	}
	return page.URL.ResolveReference(target), true
}
