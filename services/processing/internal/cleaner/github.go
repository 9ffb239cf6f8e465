package cleaner

import (
	"talentinsight/services/processing/internal/models"

	"github.com/shopspring/decimal"
)

var (
	starWeight = decimal.New(7, -1)
	forkWeight = decimal.New(3, -1)
)

func cleanGithub(c *Cleaner, b *models.Batch, docs []Document) {
	trends := make([]models.GithubTrend, 0, len(docs))

	for _, doc := range docs {
		f := c.fields(b, doc)

		stars := f.count("stars")
		forks := f.count("forks")
		trends = append(trends, models.GithubTrend{
			Source:          b.Source,
			Language:        c.skillLabel(f.text("language")),
			RepoName:        f.first("name", "full_name"),
			Stars:           stars,
			Forks:           forks,
			PopularityScore: Popularity(stars, forks),
			DateKey:         f.date("created_at"),
		})
	}

	b.Github = trends
	b.Stats.Cleaned = len(trends)
}

// Popularity weights stars over forks: 0.7*stars + 0.3*forks.
func Popularity(stars, forks int64) decimal.Decimal {
	return decimal.NewFromInt(stars).Mul(starWeight).Add(decimal.NewFromInt(forks).Mul(forkWeight))
}
