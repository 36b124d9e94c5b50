package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/parser"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
	"github.com/aluiziolira/go-scrape-catalog/report"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
// Every error is reported on stderr before a non-zero code is returned.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	c, err := newCLI()
	if err != nil {
		fmt.Fprintf(stderr, "scraper: %v\n", err)
		return 1
	}

	cmd := c.command()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "scraper: %v\n", err)
		return 1
	}
	return 0
}

// cli owns the configuration the flags write into.
type cli struct {
	cfg    *config.Config
	policy string
}

// newCLI seeds flag defaults from SCRAPER_* environment variables.
func newCLI() (*cli, error) {
	cfg := config.DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return &cli{cfg: cfg, policy: string(cfg.FailurePolicy)}, nil
}

func (c *cli) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scraper [flags]",
		Short:         "Crawls a paginated product catalog and exports every listed product.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			logger, level := newLogger(c.cfg.Verbose)
			slog.SetDefault(logger)
			slog.SetLogLoggerLevel(level.Level())

			if err := c.resolve(); err != nil {
				slog.Error("invalid configuration", slog.Any("error", err))
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), c.cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.cfg.BaseURL, "base-url", c.cfg.BaseURL, "First listing page to crawl")
	flags.IntVar(&c.cfg.MaxPages, "pages", c.cfg.MaxPages, "Maximum listing pages to fetch (0 follows next links until they run out)")
	flags.DurationVar(&c.cfg.Delay, "delay", c.cfg.Delay, "Pause between page fetches")
	flags.DurationVar(&c.cfg.Timeout, "timeout", c.cfg.Timeout, "Per-request timeout")
	flags.StringVar(&c.policy, "on-error", c.policy, "Transport failure policy: soft keeps partial results, hard aborts")
	flags.StringVar(&c.cfg.Strategy, "strategy", c.cfg.Strategy, "Extraction strategy: class or pattern")
	flags.StringVarP(&c.cfg.OutputFile, "output", "o", c.cfg.OutputFile, "Output file path")
	flags.StringVar(&c.cfg.OutputFormat, "format", c.cfg.OutputFormat, "Output format: csv, json, dual, or sqlite")
	flags.IntVar(&c.cfg.BatchSize, "batch-size", c.cfg.BatchSize, "Records per output write")
	flags.StringVar(&c.cfg.UserAgent, "user-agent", c.cfg.UserAgent, "User-Agent header sent with every request")
	flags.BoolVar(&c.cfg.RespectRobotsTxt, "respect-robots", c.cfg.RespectRobotsTxt, "Respect robots.txt directives")
	flags.StringVar(&c.cfg.MetricsAddr, "metrics-addr", c.cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolVarP(&c.cfg.Verbose, "verbose", "v", c.cfg.Verbose, "Enable verbose logging")

	return cmd
}

// resolve normalises flag values and validates the result. When the
// output path was left at its default it follows the output format.
func (c *cli) resolve() error {
	c.cfg.FailurePolicy = config.FailurePolicy(strings.ToLower(c.policy))
	c.cfg.Strategy = strings.ToLower(c.cfg.Strategy)
	c.cfg.OutputFormat = strings.ToLower(c.cfg.OutputFormat)
	if c.cfg.OutputFile == config.OutputFileFor("csv") {
		c.cfg.OutputFile = config.OutputFileFor(c.cfg.OutputFormat)
	}
	return c.cfg.Validate()
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		return fmt.Errorf("invalid SCRAPER_PAGES: %w", err)
	} else if ok {
		cfg.MaxPages = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_DELAY"); err != nil {
		return fmt.Errorf("invalid SCRAPER_DELAY: %w", err)
	} else if ok {
		cfg.Delay = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return fmt.Errorf("invalid SCRAPER_TIMEOUT: %w", err)
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok := config.EnvString("SCRAPER_ON_ERROR"); ok {
		cfg.FailurePolicy = config.FailurePolicy(value)
	}
	if value, ok := config.EnvString("SCRAPER_STRATEGY"); ok {
		cfg.Strategy = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_BATCH_SIZE"); err != nil {
		return fmt.Errorf("invalid SCRAPER_BATCH_SIZE: %w", err)
	} else if ok {
		cfg.BatchSize = value
	}
	if value, ok := config.EnvString("SCRAPER_USER_AGENT"); ok {
		cfg.UserAgent = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_RESPECT_ROBOTS"); err != nil {
		return fmt.Errorf("invalid SCRAPER_RESPECT_ROBOTS: %w", err)
	} else if ok {
		cfg.RespectRobotsTxt = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_VERBOSE"); err != nil {
		return fmt.Errorf("invalid SCRAPER_VERBOSE: %w", err)
	} else if ok {
		cfg.Verbose = value
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	metrics := scraper.NewMetrics()
	stopMetrics := serveMetrics(cfg.MetricsAddr, metrics)
	defer stopMetrics()

	fetcher, err := scraper.NewCollyFetcher(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}
	extractor, err := parser.NewExtractor(cfg.Strategy, parser.DefaultVocabulary())
	if err != nil {
		return fmt.Errorf("initialising extractor: %w", err)
	}
	crawler, err := scraper.NewCrawler(cfg, fetcher, extractor, parser.NewNavigator(), metrics)
	if err != nil {
		return fmt.Errorf("initialising crawler: %w", err)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("max_pages", cfg.MaxPages),
		slog.String("strategy", cfg.Strategy),
		slog.String("on_error", string(cfg.FailurePolicy)),
	)

	result, crawlErr := crawler.Run(ctx)
	summary := report.Summarize(result.Records)
	if crawlErr != nil {
		slog.Error("scraping failed", slog.String("run_id", result.RunID), slog.Any("error", crawlErr))
		report.Print(out, result, summary, "")
		return crawlErr
	}

	writeErr := writeOutput(cfg, result.Records)
	if writeErr != nil {
		slog.Error("output write failed; file is missing or incomplete",
			slog.String("run_id", result.RunID),
			slog.String("path", cfg.OutputFile),
			slog.Any("error", writeErr),
		)
		report.Print(out, result, summary, "")
		return writeErr
	}

	slog.Info("scrape finished",
		slog.String("run_id", result.RunID),
		slog.Int("records", len(result.Records)),
		slog.String("stop_reason", string(result.StopReason)),
		slog.String("output", cfg.OutputFile),
	)
	report.Print(out, result, summary, cfg.OutputFile)
	return nil
}

func writeOutput(cfg *config.Config, records []models.Record) error {
	writer, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	if err := pipeline.Persist(writer, records, cfg.BatchSize); err != nil {
		return errors.Join(err, writer.Close())
	}
	if err := writer.Validate(); err != nil {
		return errors.Join(fmt.Errorf("validate output: %w", err), writer.Close())
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// serveMetrics exposes the registry on addr and returns a shutdown func.
func serveMetrics(addr string, metrics *scraper.Metrics) func() {
	if addr == "" || metrics == nil {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
