package cleaner

import (
	"sort"

	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/models"
)

// cleanGoogleTrends expands each keyword document into one row per
// interest_over_time entry, in date order.
func cleanGoogleTrends(c *Cleaner, b *models.Batch, docs []Document) {
	var trends []models.SearchTrend

	for _, doc := range docs {
		f := c.fields(b, doc)

		series, ok := doc["interest_over_time"].(map[string]any)
		if !ok {
			b.Stats.Dropped++
			continue
		}

		keyword := f.text("keyword")
		skill := c.skillLabel(keyword)

		dates := make([]string, 0, len(series))
		for d := range series {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		for _, d := range dates {
			point := fields{doc: Document{"date": d, "value": series[d]}, stats: f.stats, logger: f.logger}

			var interest *int64
			if v, ok := point.integer("value"); ok {
				interest = &v
			}

			key, err := dimension.ParseDateKey(d)
			if err != nil {
				point.transformError("date", d, err)
			}

			trends = append(trends, models.SearchTrend{
				Source:        b.Source,
				Keyword:       keyword,
				Skill:         skill,
				DateKey:       key,
				InterestValue: interest,
			})
		}
	}

	b.Search = trends
	b.Stats.Cleaned = len(trends)
}
