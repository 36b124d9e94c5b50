package config

import (
	"fmt"
	"net/url"
	"time"
)

// FailurePolicy decides what a transport failure does to the crawl.
type FailurePolicy string

const (
	// FailSoft stops the crawl and keeps what was already collected.
	FailSoft FailurePolicy = "soft"
	// FailHard aborts the run with an error.
	FailHard FailurePolicy = "hard"
)

// Extraction strategies understood by parser.NewExtractor.
const (
	StrategyClass   = "class"
	StrategyPattern = "pattern"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string
	MaxPages         int // 0 means follow next links until they run out
	Delay            time.Duration
	Timeout          time.Duration
	FailurePolicy    FailurePolicy
	Strategy         string
	OutputFile       string
	OutputFormat     string // csv, json, dual, or sqlite
	BatchSize        int
	RevisitWindow    int
	UserAgent        string
	Verbose          bool
	RespectRobotsTxt bool
	MetricsAddr      string
}

// OutputFileFor returns the default output path for an output format.
func OutputFileFor(format string) string {
	switch format {
	case "json":
		return "output/products.jsonl"
	case "sqlite":
		return "output/products.db"
	default:
		return "output/products.csv"
	}
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://books.toscrape.com/",
		MaxPages:         0,
		Delay:            200 * time.Millisecond,
		Timeout:          10 * time.Second,
		FailurePolicy:    FailSoft,
		Strategy:         StrategyClass,
		OutputFile:       OutputFileFor("csv"),
		OutputFormat:     "csv",
		BatchSize:        64,
		RevisitWindow:    256,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.FailurePolicy != FailSoft && c.FailurePolicy != FailHard {
		return fmt.Errorf("failure policy must be soft or hard")
	}
	if c.Strategy != StrategyClass && c.Strategy != StrategyPattern {
		return fmt.Errorf("strategy must be class or pattern")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "sqlite":
	default:
		return fmt.Errorf("output format must be csv, json, dual, or sqlite")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RevisitWindow <= 0 {
		return fmt.Errorf("revisit window must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
