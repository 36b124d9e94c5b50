package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves and parses a single listing page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.Page, error)
}

// CollyFetcher issues one synchronous GET per page through a colly collector.
type CollyFetcher struct {
	collector *colly.Collector
	metrics   *Metrics
}

type fetchOutcome struct {
	status int
	body   []byte
	url    *url.URL
}

// NewCollyFetcher builds a fetcher restricted to the base URL's host.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	// Error statuses still reach OnResponse so Fetch can classify them.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	collector.OnRequest(func(r *colly.Request) {
		if ctx, ok := r.Ctx.GetAny("ctx").(context.Context); ok && ctx.Err() != nil {
			r.Abort()
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("outcome", &fetchOutcome{
			status: r.StatusCode,
			body:   r.Body,
			url:    r.Request.URL,
		})
	})

	return &CollyFetcher{collector: collector, metrics: metrics}, nil
}

// Fetch downloads rawURL and parses it into a Page.
// Every failure is returned as a *TransportError.
//
// ctx is checked before the request is sent and again once it returns.
// colly cannot interrupt a request in flight, so cancellation during a
// download takes effect after at most cfg.Timeout.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, newTransportError(rawURL, 0, err)
	}

	f.metrics.IncRequest("started")
	start := time.Now()
	reqCtx := colly.NewContext()
	reqCtx.Put("ctx", ctx)
	err := f.collector.Request(http.MethodGet, rawURL, nil, reqCtx, nil)
	f.metrics.ObserveDuration(time.Since(start))

	if ctxErr := ctx.Err(); ctxErr != nil {
		f.metrics.IncRequest("cancelled")
		return nil, newTransportError(rawURL, 0, ctxErr)
	}

	outcome, _ := reqCtx.GetAny("outcome").(*fetchOutcome)
	if err != nil || outcome == nil {
		status := 0
		if outcome != nil {
			status = outcome.status
		}
		if err == nil {
			err = fmt.Errorf("no response received")
		}
		return nil, f.fail(rawURL, status, err)
	}

	if outcome.status < 200 || outcome.status > 299 {
		return nil, f.fail(rawURL, outcome.status, nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(outcome.body))
	if err != nil {
		return nil, f.fail(rawURL, outcome.status, fmt.Errorf("parse html: %w", err))
	}

	pageURL := outcome.url
	if pageURL == nil {
		if pageURL, err = url.Parse(rawURL); err != nil {
			return nil, f.fail(rawURL, outcome.status, fmt.Errorf("parse page url: %w", err))
		}
	}
	f.metrics.IncRequest("completed")
	return &models.Page{URL: pageURL, Doc: doc}, nil
}

func (f *CollyFetcher) fail(rawURL string, status int, err error) error {
	te := newTransportError(rawURL, status, err)
	f.metrics.IncRequest("failed")
	f.metrics.IncError(string(te.Kind))
	return te
}
