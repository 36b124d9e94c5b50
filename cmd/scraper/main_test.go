package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIEnvSeedsFlagDefaults(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "7")
	t.Setenv("SCRAPER_DELAY", "1s")
	t.Setenv("SCRAPER_ON_ERROR", "hard")
	t.Setenv("SCRAPER_FORMAT", "sqlite")

	c, err := newCLI()
	require.NoError(t, err)
	cmd := c.command()
	require.NoError(t, cmd.ParseFlags([]string{"--pages", "3", "--strategy", "PATTERN"}))
	require.NoError(t, c.resolve())

	assert.Equal(t, 3, c.cfg.MaxPages, "flag wins over env")
	assert.Equal(t, time.Second, c.cfg.Delay)
	assert.Equal(t, config.FailHard, c.cfg.FailurePolicy)
	assert.Equal(t, config.StrategyPattern, c.cfg.Strategy)
	assert.Equal(t, "sqlite", c.cfg.OutputFormat)
}

func TestCLIInvalidEnv(t *testing.T) {
	t.Setenv("SCRAPER_DELAY", "soon")

	_, err := newCLI()
	assert.ErrorContains(t, err, "SCRAPER_DELAY")
}

func TestCLIRejectsUnknownPolicy(t *testing.T) {
	c, err := newCLI()
	require.NoError(t, err)
	require.NoError(t, c.command().ParseFlags([]string{"--on-error", "retry"}))
	assert.Error(t, c.resolve())
}

func TestExecuteReportsFlagErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "unknown flag", args: []string{"--bogus"}, expected: "unknown flag: --bogus"},
		{name: "malformed value", args: []string{"--pages", "abc"}, expected: `invalid argument "abc" for "--pages"`},
		{name: "stray argument", args: []string{"extra"}, expected: `unknown command "extra"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := execute(context.Background(), tt.args, &stderr)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), tt.expected)
		})
	}
}

func TestExecuteReportsInvalidEnv(t *testing.T) {
	t.Setenv("SCRAPER_BATCH_SIZE", "many")

	var stderr bytes.Buffer
	assert.Equal(t, 1, execute(context.Background(), nil, &stderr))
	assert.Contains(t, stderr.String(), "SCRAPER_BATCH_SIZE")
}

func TestCLIEnvSeedsTransportSettings(t *testing.T) {
	t.Setenv("SCRAPER_BATCH_SIZE", "8")
	t.Setenv("SCRAPER_USER_AGENT", "catalog-bot/1.0")
	t.Setenv("SCRAPER_RESPECT_ROBOTS", "true")

	c, err := newCLI()
	require.NoError(t, err)
	require.NoError(t, c.resolve())

	assert.Equal(t, 8, c.cfg.BatchSize)
	assert.Equal(t, "catalog-bot/1.0", c.cfg.UserAgent)
	assert.True(t, c.cfg.RespectRobotsTxt)
}

func TestCLIDefaultOutputFollowsFormat(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "default", args: nil, expected: "output/products.csv"},
		{name: "json", args: []string{"--format", "json"}, expected: "output/products.jsonl"},
		{name: "sqlite", args: []string{"--format", "SQLITE"}, expected: "output/products.db"},
		{name: "dual", args: []string{"--format", "dual"}, expected: "output/products.csv"},
		{name: "explicit path", args: []string{"--format", "sqlite", "-o", "data/books.sqlite"}, expected: "data/books.sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCLI()
			require.NoError(t, err)
			require.NoError(t, c.command().ParseFlags(tt.args))
			require.NoError(t, c.resolve())
			assert.Equal(t, tt.expected, c.cfg.OutputFile)
		})
	}
}

func catalogServer(t *testing.T, failSecond bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
<article class="product_pod"><h3><a title="A Light in the Attic">A Light...</a></h3>
<p class="star-rating Three"></p><p class="price_color">£51.77</p><p class="instock availability">In stock</p></article>
<article class="product_pod"><h3><a></a></h3><p class="price_color">£9.99</p></article>
<ul class="pager"><li class="next"><a href="catalogue/page-2.html">next</a></li></ul>
</body></html>`)
	})
	mux.HandleFunc("/catalogue/page-2.html", func(w http.ResponseWriter, r *http.Request) {
		if failSecond {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<html><body>
<article class="product_pod"><h3><a title="Sharp Objects">Sharp Objects</a></h3>
<p class="star-rating Four"></p><p class="price_color">£47.83</p><p class="availability">Out of stock</p></article>
</body></html>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testRunConfig(t *testing.T, baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL + "/"
	cfg.Delay = 0
	cfg.Timeout = 5 * time.Second
	cfg.OutputFile = filepath.Join(t.TempDir(), "products.csv")
	return cfg
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunWritesCSVAndSummary(t *testing.T) {
	server := catalogServer(t, false)
	cfg := testRunConfig(t, server.URL)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	assert.Equal(t, [][]string{
		{"Title", "Price", "Availability", "Rating"},
		{"A Light in the Attic", "51.77", "InStock", "3"},
		{"Sharp Objects", "47.83", "OutOfStock", "4"},
	}, readRows(t, cfg.OutputFile))
	assert.Contains(t, out.String(), "Scrape complete")
	assert.Contains(t, out.String(), "£49.80")
}

func TestRunFailSoftStillWritesOutput(t *testing.T) {
	server := catalogServer(t, true)
	cfg := testRunConfig(t, server.URL)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	rows := readRows(t, cfg.OutputFile)
	assert.Len(t, rows, 2)
	assert.Contains(t, out.String(), "fetch_failed")
}

func TestRunFailHardReturnsError(t *testing.T) {
	server := catalogServer(t, true)
	cfg := testRunConfig(t, server.URL)
	cfg.FailurePolicy = config.FailHard

	var out bytes.Buffer
	err := run(context.Background(), cfg, &out)
	require.Error(t, err)

	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr), "hard failure must not write output")
	assert.Contains(t, out.String(), "Scrape aborted")
}

func TestRunReportsOutputFailure(t *testing.T) {
	server := catalogServer(t, false)
	cfg := testRunConfig(t, server.URL)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.OutputFile = filepath.Join(blocker, "products.csv")

	var out bytes.Buffer
	assert.Error(t, run(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "Scrape complete")
}
