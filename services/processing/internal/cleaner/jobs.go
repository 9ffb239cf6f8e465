package cleaner

import (
	"strings"

	"talentinsight/services/processing/internal/models"
	"talentinsight/services/processing/internal/salary"

	"go.uber.org/zap"
)

// cleanAdzuna handles the Adzuna search API rows: lower-case country code,
// flat salary bounds and a "created" timestamp.
func cleanAdzuna(c *Cleaner, b *models.Batch, docs []Document) {
	jobs := make([]models.JobPosting, 0, len(docs))
	bounds := make([]salary.Bounds, 0, len(docs))

	for _, doc := range docs {
		f := c.fields(b, doc)

		title := f.text("title")
		company := f.text("company")
		country := f.text("country")
		if missing(title, company, country) {
			b.Stats.Dropped++
			continue
		}

		jobs = append(jobs, models.JobPosting{
			Source:      b.Source,
			CountryCode: c.countryKey(country),
			Title:       title,
			Company:     company,
			Location:    f.text("location"),
			Skills:      c.lexicon.Extract(title),
			DateKey:     f.date("created"),
		})
		bounds = append(bounds, salary.Bounds{
			Min: f.salary("salary_min"),
			Max: f.salary("salary_max"),
		})
	}

	c.finishJobs(b, jobs, bounds)
}

// cleanJobBoard handles Indeed and LinkedIn rows scraped through jobspy. Rows
// repeat across searches, so the board's own id is deduplicated first. When
// the structured salary is absent it is parsed from the description; the
// description and asset URLs are not carried forward.
func cleanJobBoard(c *Cleaner, b *models.Batch, docs []Document) {
	jobs := make([]models.JobPosting, 0, len(docs))
	bounds := make([]salary.Bounds, 0, len(docs))
	seen := make(map[string]bool)

	for _, doc := range docs {
		f := c.fields(b, doc)

		if id := f.text("id"); id != "" {
			if seen[id] {
				b.Stats.Duplicates++
				continue
			}
			seen[id] = true
		}

		title := f.text("title")
		company := f.text("company")
		location := f.text("location")
		country := f.first("target_country", "country")
		if country == "" {
			country = lastSegment(location)
		}
		if missing(title, company, country) {
			b.Stats.Dropped++
			continue
		}

		bound := salary.Bounds{
			Min: f.salary("min_amount"),
			Max: f.salary("max_amount"),
		}
		if !bound.Min.Valid {
			if lo, hi, ok := salaryFromText(f.text("description")); ok {
				bound = salary.Bounds{Min: lo, Max: hi}
			}
		}

		jobs = append(jobs, models.JobPosting{
			Source:      b.Source,
			CountryCode: c.countryKey(country),
			Title:       title,
			Company:     company,
			Location:    location,
			Skills:      c.lexicon.Extract(title),
			DateKey:     f.date("date_posted"),
		})
		bounds = append(bounds, bound)
	}

	c.finishJobs(b, jobs, bounds)
}

// finishJobs normalizes salaries across the whole batch. Imputation uses the
// batch medians, so it has to wait until every row is read.
func (c *Cleaner) finishJobs(b *models.Batch, jobs []models.JobPosting, bounds []salary.Bounds) {
	normalized, stats := salary.Normalize(bounds)
	for i := range jobs {
		n := normalized[i]
		jobs[i].SalaryMin = n.Min
		jobs[i].SalaryMax = n.Max
		jobs[i].SalaryAvg = n.Avg
		jobs[i].SalaryImputed = n.Imputed
		if n.Imputed {
			b.Stats.SalaryImputed++
		}
	}

	if stats.ImputedMin+stats.ImputedMax > 0 {
		c.logger.Info("imputed missing salary bounds with batch median",
			zap.String("source", b.Source),
			zap.Int("imputed_min", stats.ImputedMin),
			zap.Int("imputed_max", stats.ImputedMax),
			zap.String("median_min", stats.MedianMin.Decimal.String()),
			zap.String("median_max", stats.MedianMax.Decimal.String()),
			zap.Int("below_floor", stats.BelowFloor))
	}

	b.Jobs = jobs
	b.Stats.Cleaned = len(jobs)
}

func lastSegment(location string) string {
	parts := strings.Split(location, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
