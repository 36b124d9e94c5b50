// Package report computes and renders run statistics.
package report

import (
	"math"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// Summarize computes statistics over records without modifying them.
// Averages only consider present values and are nil when there are none.
func Summarize(records []models.Record) models.Summary {
	summary := models.Summary{
		Total:           len(records),
		RatingHistogram: make(map[int]int, 5),
	}
	for star := 1; star <= 5; star++ {
		summary.RatingHistogram[star] = 0
	}

	var priceSum float64
	var ratingSum int
	for _, record := range records {
		if record.Price != nil {
			summary.PricedCount++
			priceSum += *record.Price
		}
		if record.Rating != nil {
			summary.RatedCount++
			ratingSum += *record.Rating
			summary.RatingHistogram[*record.Rating]++
		}
		if record.Availability == models.InStock {
			summary.InStockCount++
		}
	}

	summary.MissingPrice = summary.Total - summary.PricedCount
	if summary.Total > 0 {
		summary.PricedFraction = float64(summary.PricedCount) / float64(summary.Total)
	}
	if summary.PricedCount > 0 {
		avg := round2(priceSum / float64(summary.PricedCount))
		summary.AveragePrice = &avg
	}
	if summary.RatedCount > 0 {
		avg := round2(float64(ratingSum) / float64(summary.RatedCount))
		summary.AverageRating = &avg
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
