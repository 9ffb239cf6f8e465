package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/models"

	"github.com/shopspring/decimal"
)

// factWriter assigns fact ids sequentially in batch order, so a reload of
// the same curated input reproduces the same rows.
type factWriter struct {
	tx       *sql.Tx
	resolver *dimension.Resolver

	jobID, githubID, searchID, surveyID int64
}

// keys collects resolutions for one fact row and remembers whether any of
// them fell back.
type keys struct {
	r        *dimension.Resolver
	sentinel bool
}

func (k *keys) id(dim dimension.Dimension, key string) int64 {
	id, err := k.r.Resolve(dim, key)
	if err != nil {
		k.sentinel = true
	}
	return id
}

func (k *keys) date(key string) string {
	d, err := k.r.ResolveDate(key)
	if err != nil {
		k.sentinel = true
	}
	return d
}

func (w *factWriter) writeBatch(ctx context.Context, b models.Batch) (SourceLoad, error) {
	var load SourceLoad
	add := func(k *keys) {
		load.Loaded++
		if k.sentinel {
			load.Sentinel++
		}
	}

	for _, j := range b.Jobs {
		skills := j.Skills
		if len(skills) == 0 {
			skills = []string{dimension.Unknown}
		}
		// one row per extracted skill
		for _, skill := range skills {
			k := &keys{r: w.resolver}
			w.jobID++
			if _, err := w.tx.ExecContext(ctx, `
				INSERT INTO f_job_offers (
					id_offer, id_country, id_skill, id_source, id_company, date_key,
					title, location, salary_min, salary_max, salary_avg, salary_imputed
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				w.jobID,
				k.id(dimension.Country, j.CountryCode),
				k.id(dimension.Skill, skill),
				k.id(dimension.Source, j.Source),
				k.id(dimension.Company, j.Company),
				k.date(j.DateKey),
				nullString(j.Title),
				nullString(j.Location),
				nullFloat(j.SalaryMin),
				nullFloat(j.SalaryMax),
				nullFloat(j.SalaryAvg),
				j.SalaryImputed,
			); err != nil {
				return load, fmt.Errorf("insert job offer %d: %w", w.jobID, err)
			}
			add(k)
		}
	}

	for _, g := range b.Github {
		k := &keys{r: w.resolver}
		w.githubID++
		if _, err := w.tx.ExecContext(ctx, `
			INSERT INTO f_github_trends (
				id_trend, id_skill, id_source, date_key, repo_name, stars, forks, popularity_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			w.githubID,
			k.id(dimension.Skill, g.Language),
			k.id(dimension.Source, g.Source),
			k.date(g.DateKey),
			nullString(g.RepoName),
			g.Stars,
			g.Forks,
			g.PopularityScore.InexactFloat64(),
		); err != nil {
			return load, fmt.Errorf("insert github trend %d: %w", w.githubID, err)
		}
		add(k)
	}

	for _, s := range b.Search {
		k := &keys{r: w.resolver}
		w.searchID++
		var interest sql.NullInt64
		if s.InterestValue != nil {
			interest = sql.NullInt64{Int64: *s.InterestValue, Valid: true}
		}
		if _, err := w.tx.ExecContext(ctx, `
			INSERT INTO f_search_trends (
				id_search, id_skill, id_source, date_key, keyword, interest_value
			) VALUES (?, ?, ?, ?, ?, ?)`,
			w.searchID,
			k.id(dimension.Skill, s.Skill),
			k.id(dimension.Source, s.Source),
			k.date(s.DateKey),
			nullString(s.Keyword),
			interest,
		); err != nil {
			return load, fmt.Errorf("insert search trend %d: %w", w.searchID, err)
		}
		add(k)
	}

	for _, s := range b.Survey {
		k := &keys{r: w.resolver}
		w.surveyID++
		if _, err := w.tx.ExecContext(ctx, `
			INSERT INTO f_survey_responses (
				id_response, id_country, id_source, salary, years_experience, dev_type, languages_used
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.surveyID,
			k.id(dimension.Country, s.Country),
			k.id(dimension.Source, s.Source),
			nullFloat(s.Salary),
			nullString(s.YearsExperience),
			nullString(s.DevType),
			nullString(strings.Join(s.Languages, ";")),
		); err != nil {
			return load, fmt.Errorf("insert survey response %d: %w", w.surveyID, err)
		}

		// languages outside the skill catalog keep their text and point at
		// the sentinel skill without marking the response itself
		lk := &keys{r: w.resolver}
		for _, lang := range s.Languages {
			if _, err := w.tx.ExecContext(ctx,
				`INSERT INTO f_survey_languages (id_response, id_skill, language) VALUES (?, ?, ?)`,
				w.surveyID, lk.id(dimension.Skill, lang), lang,
			); err != nil {
				return load, fmt.Errorf("insert survey language %q: %w", lang, err)
			}
		}
		add(k)
	}

	return load, nil
}

func nullFloat(d decimal.NullDecimal) sql.NullFloat64 {
	if !d.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: d.Decimal.InexactFloat64(), Valid: true}
}
