package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	PagesTotal        prometheus.Counter
	ItemsScrapedTotal prometheus.Counter
	ItemsSkippedTotal prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	RevisitsTotal     prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Total listing pages fetched and parsed.",
		},
	)
	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_scraped_total",
			Help: "Total number of records extracted.",
		},
	)
	itemsSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_skipped_total",
			Help: "Total number of product containers dropped for a missing title.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	revisits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_page_revisits_total",
			Help: "Pages fetched again within the revisit window.",
		},
	)

	registry.MustRegister(requests, requestDuration, pages, itemsScraped, itemsSkipped, errorsTotal, revisits)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		PagesTotal:        pages,
		ItemsScrapedTotal: itemsScraped,
		ItemsSkippedTotal: itemsSkipped,
		ErrorsTotal:       errorsTotal,
		RevisitsTotal:     revisits,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPages increments the fetched pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddItems adds extracted and skipped record counts.
func (m *Metrics) AddItems(scraped, skipped int) {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.Add(float64(scraped))
	m.ItemsSkippedTotal.Add(float64(skipped))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRevisit increments the page revisit counter.
func (m *Metrics) IncRevisit() {
	if m == nil {
		return
	}
	m.RevisitsTotal.Inc()
}
