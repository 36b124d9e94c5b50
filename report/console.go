package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const notAvailable = "N/A"

// Print renders the end-of-run summary block to w.
func Print(w io.Writer, result *models.RunResult, summary models.Summary, outputFile string) {
	overview := newTable(w)
	overview.SetTitle(title(result))
	overview.AppendRows([]table.Row{
		{"Total products", summary.Total},
		{"With price", fmt.Sprintf("%d (%.1f%%)", summary.PricedCount, summary.PricedFraction*100)},
		{"Missing price", summary.MissingPrice},
		{"Average price", formatAverage(summary.AveragePrice, "£")},
		{"With rating", summary.RatedCount},
		{"Average rating", formatAverage(summary.AverageRating, "")},
		{"In stock", summary.InStockCount},
	})
	if result != nil {
		overview.AppendSeparator()
		overview.AppendRows([]table.Row{
			{"Pages", result.PageCount},
			{"Skipped (no title)", result.SkippedCount},
			{"Stopped because", string(result.StopReason)},
			{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond)},
		})
		if result.FailedURL != "" {
			overview.AppendRow(table.Row{"Failed URL", fmt.Sprintf("%s (%s)", result.FailedURL, result.ErrorType)})
		}
	}
	if outputFile != "" {
		overview.AppendRow(table.Row{"Output file", outputFile})
	}
	overview.Render()

	ratings := newTable(w)
	ratings.SetTitle("Rating distribution")
	ratings.AppendHeader(table.Row{"Stars", "Count", ""})
	for star := 1; star <= 5; star++ {
		count := summary.RatingHistogram[star]
		ratings.AppendRow(table.Row{star, count, strings.Repeat("#", bar(count, summary.RatedCount))})
	}
	ratings.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter},
		{Number: 2, Align: text.AlignRight},
	})
	ratings.Render()
}

func title(result *models.RunResult) string {
	if result != nil && result.Aborted {
		return "Scrape aborted"
	}
	return "Scrape complete"
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func formatAverage(v *float64, prefix string) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s%.2f", prefix, *v)
}

// bar scales count to at most 30 characters.
func bar(count, total int) int {
	if total == 0 || count == 0 {
		return 0
	}
	width := count * 30 / total
	if width == 0 {
		width = 1
	}
	return width
}
