package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/parser"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Navigator resolves the next page of a listing.
type Navigator interface {
	Next(page *models.Page) (*url.URL, bool)
}

// Crawler walks the listing one page at a time, following next links
// until none remain. It performs no cycle detection: a next chain that
// loops is followed until MaxPages (if set) or cancellation stops it.
type Crawler struct {
	cfg       *config.Config
	fetcher   Fetcher
	extractor parser.Extractor
	navigator Navigator
	metrics   *Metrics

	recent *lru.Cache[string, int]
	wait   func(ctx context.Context, d time.Duration) error
}

// NewCrawler wires a crawler from its collaborators.
func NewCrawler(cfg *config.Config, fetcher Fetcher, extractor parser.Extractor, navigator Navigator, metrics *Metrics) (*Crawler, error) {
	if fetcher == nil || extractor == nil || navigator == nil {
		return nil, fmt.Errorf("crawler needs a fetcher, extractor and navigator")
	}
	window := cfg.RevisitWindow
	if window <= 0 {
		window = 1
	}
	recent, err := lru.New[string, int](window)
	if err != nil {
		return nil, fmt.Errorf("revisit cache: %w", err)
	}
	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		navigator: navigator,
		metrics:   metrics,
		recent:    recent,
		wait:      sleepContext,
	}, nil
}

// Run crawls from the configured base URL. Under the soft failure policy a
// fetch failure ends the crawl with a nil error; under the hard policy the
// *TransportError is returned. The result is never nil.
func (c *Crawler) Run(ctx context.Context) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		RunID:     uuid.NewString(),
		Records:   []models.Record{},
		StartTime: time.Now(),
	}
	logger := slog.With(slog.String("run_id", result.RunID))
	current := c.cfg.BaseURL

	for {
		if ctx.Err() != nil {
			return c.finish(result, models.StopCancelled), nil
		}

		c.noteVisit(logger, current)
		page, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return c.finish(result, models.StopCancelled), nil
			}
			result.FailedURL = current
			result.ErrorType = ErrorLabel(err)
			if c.cfg.FailurePolicy == config.FailHard {
				result.Aborted = true
				logger.Error("fetch failed, aborting crawl",
					slog.String("url", current),
					slog.String("category", result.ErrorType),
					slog.Any("error", err),
				)
				return c.finish(result, models.StopFetchFailed), fmt.Errorf("crawl page %d: %w", result.PageCount+1, err)
			}
			logger.Warn("fetch failed, keeping partial results",
				slog.String("url", current),
				slog.String("category", result.ErrorType),
				slog.Any("error", err),
				slog.Int("records", len(result.Records)),
			)
			return c.finish(result, models.StopFetchFailed), nil
		}

		result.PageCount++
		c.metrics.IncPages()

		records, skipped := c.extractor.Extract(page)
		result.Records = append(result.Records, records...)
		result.SkippedCount += skipped
		c.metrics.AddItems(len(records), skipped)

		logger.Info("fetched page",
			slog.Int("page", result.PageCount),
			slog.String("url", current),
			slog.Int("records", len(records)),
			slog.Int("skipped", skipped),
		)

		next, ok := c.navigator.Next(page)
		if !ok {
			return c.finish(result, models.StopExhausted), nil
		}
		if c.cfg.MaxPages > 0 && result.PageCount >= c.cfg.MaxPages {
			logger.Info("page limit reached", slog.Int("max_pages", c.cfg.MaxPages), slog.String("next", next.String()))
			return c.finish(result, models.StopMaxPages), nil
		}
		current = next.String()

		if err := c.wait(ctx, c.cfg.Delay); err != nil {
			return c.finish(result, models.StopCancelled), nil
		}
	}
}

func (c *Crawler) finish(result *models.RunResult, reason models.StopReason) *models.RunResult {
	result.StopReason = reason
	result.EndTime = time.Now()
	return result
}

// noteVisit only reports repeats; the crawl carries on regardless.
func (c *Crawler) noteVisit(logger *slog.Logger, pageURL string) {
	visits, seen := c.recent.Get(pageURL)
	c.recent.Add(pageURL, visits+1)
	if !seen {
		return
	}
	c.metrics.IncRevisit()
	logger.Warn("page already visited, next links may be cycling",
		slog.String("url", pageURL),
		slog.Int("visits", visits+1),
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
