package cleaner

import (
	"context"
	"fmt"
	"strings"

	"talentinsight/common/errors"
	"talentinsight/common/telemetry"
	"talentinsight/services/processing/internal/catalog"
	"talentinsight/services/processing/internal/lexicon"
	"talentinsight/services/processing/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/processing/cleaner")

// Document is one decoded raw record.
type Document = map[string]any

type routine func(c *Cleaner, b *models.Batch, docs []Document)

type route struct {
	prefix string
	source string
	clean  routine
}

// Raw sources are matched by collection-name prefix, e.g. "adzuna_jobs" or
// "stackoverflow_survey_2024".
var routes = []route{
	{prefix: "adzuna", source: "Adzuna", clean: cleanAdzuna},
	{prefix: "indeed", source: "Indeed", clean: cleanJobBoard},
	{prefix: "linkedin", source: "LinkedIn", clean: cleanJobBoard},
	{prefix: "github", source: "GitHub", clean: cleanGithub},
	{prefix: "google_trends", source: "Google Trends", clean: cleanGoogleTrends},
	{prefix: "stackoverflow", source: "Stack Overflow", clean: cleanSurvey},
}

// Cleaner normalizes raw documents into curated rows. It holds no mutable
// state, so routines for different sources may run concurrently.
type Cleaner struct {
	catalog *catalog.Catalog
	lexicon *lexicon.Lexicon
	logger  *zap.Logger
}

func New(cat *catalog.Catalog, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		catalog: cat,
		lexicon: cat.Lexicon(),
		logger:  logger,
	}
}

// SourceName returns the display name of the source dimension member for a
// raw collection, or false when no routine handles it.
func SourceName(rawSource string) (string, bool) {
	r, ok := lookup(rawSource)
	return r.source, ok
}

func lookup(rawSource string) (route, bool) {
	name := strings.ToLower(strings.TrimSpace(rawSource))
	for _, r := range routes {
		if strings.HasPrefix(name, r.prefix) {
			return r, true
		}
	}
	return route{}, false
}

func (c *Cleaner) Clean(ctx context.Context, rawSource string, docs []Document) (models.Batch, error) {
	_, span := tracer.Start(ctx, "Cleaner.Clean")
	defer span.End()
	span.SetAttributes(
		telemetry.String("raw.source", rawSource),
		telemetry.Int("raw.documents", len(docs)),
	)

	r, ok := lookup(rawSource)
	if !ok {
		return models.Batch{}, errors.InvalidInput(fmt.Sprintf("no cleaning routine for source %q", rawSource), nil)
	}
	if err := ctx.Err(); err != nil {
		return models.Batch{}, err
	}

	b := models.Batch{RawSource: rawSource, Source: r.source}
	b.Stats.Raw = len(docs)
	r.clean(c, &b, docs)

	span.SetAttributes(
		telemetry.Int("rows.cleaned", b.Stats.Cleaned),
		telemetry.Int("rows.dropped", b.Stats.Dropped),
	)
	c.logger.Info("cleaned source",
		zap.String("raw_source", rawSource),
		zap.String("source", r.source),
		zap.Int("raw", b.Stats.Raw),
		zap.Int("cleaned", b.Stats.Cleaned),
		zap.Int("dropped", b.Stats.Dropped),
		zap.Int("duplicates", b.Stats.Duplicates),
		zap.Int("transform_errors", b.Stats.TransformErrors))

	return b, nil
}

// countryKey maps a country code, name or alias to its ISO2 code. Unknown
// values are kept upper-cased so the resolver reports them as misses.
func (c *Cleaner) countryKey(value string) string {
	if code, ok := c.catalog.CountryCode(value); ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(value))
}

// skillLabel maps a language or keyword to a lexicon label, falling back to
// the term itself.
func (c *Cleaner) skillLabel(term string) string {
	if label, ok := c.lexicon.Canonical(term); ok {
		return label
	}
	return strings.TrimSpace(term)
}
