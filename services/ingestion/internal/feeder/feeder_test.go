package feeder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"talentinsight/common/database"
	"talentinsight/common/rawstore"
	"talentinsight/services/ingestion/internal/ingestor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "stackoverflow_survey_2024", SourceName("/raw/stackoverflow_survey_2024.csv"))
	assert.Equal(t, "adzuna_jobs", SourceName("adzuna_jobs.json"))
}

func TestLoadCSVDropsEmptyRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "survey.csv", "\ufeffCountry,CompTotal,LanguageHaveWorkedWith\n"+
		"Germany,85000,Go;Python\n"+
		",,\n"+
		"France,,\"C;C++\"\n")

	payloads, err := Load(path)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.JSONEq(t, `{"Country": "Germany", "CompTotal": "85000", "LanguageHaveWorkedWith": "Go;Python"}`, string(payloads[0]))
	assert.JSONEq(t, `{"Country": "France", "CompTotal": "", "LanguageHaveWorkedWith": "C;C++"}`, string(payloads[1]))
}

func TestLoadJSONObjectOrArray(t *testing.T) {
	dir := t.TempDir()

	single, err := Load(writeFile(t, dir, "one.json", `{"keyword": "python"}`))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	many, err := Load(writeFile(t, dir, "many.json", `[{"a": 1}, {"a": 2}, 3]`))
	require.NoError(t, err)
	assert.Len(t, many, 3)

	_, err = Load(writeFile(t, dir, "bad.json", `{"a": `))
	assert.NoError(t, err, "a single object is passed through and rejected at ingestion")

	_, err = Load(writeFile(t, dir, "broken.json", `[{"a": 1}`))
	assert.Error(t, err)
}

func TestFeed(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db, err := database.NewSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	store, err := rawstore.NewSQLiteStore(ctx, db, logger)
	require.NoError(t, err)
	defer store.Close()

	dir := t.TempDir()
	writeFile(t, dir, "indeed_jobs.json", `[{"id": "1", "title": "Go Dev"}, {"id": "1", "title": "Go Dev"}, 7]`)
	writeFile(t, dir, "nested/google_trends.json", `{"keyword": "rust developer", "interest_over_time": {"2024-01-01": 12}}`)
	writeFile(t, dir, "stackoverflow_survey_2024.csv", "Country,CompTotal\nGermany,85000\n")
	writeFile(t, dir, "broken.json", `[{"a": 1}`)
	writeFile(t, dir, "notes.txt", "ignored")

	f := New(dir, ingestor.New(store, logger), logger)
	res, err := f.Feed(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, ingestor.BatchResult{Stored: 1, Duplicates: 1, Rejected: 1}, res.Sources["indeed_jobs"])
	assert.Equal(t, ingestor.BatchResult{Stored: 1}, res.Sources["google_trends"])
	assert.Equal(t, ingestor.BatchResult{Stored: 1}, res.Sources["stackoverflow_survey_2024"])

	// feeding the same directory again stores nothing new
	res, err = f.Feed(ctx)
	require.NoError(t, err)
	assert.Equal(t, ingestor.BatchResult{Duplicates: 1}, res.Sources["google_trends"])

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"indeed_jobs": 1, "google_trends": 1, "stackoverflow_survey_2024": 1}, counts)
}

func TestFeedMissingDirectory(t *testing.T) {
	logger := zaptest.NewLogger(t)
	f := New(filepath.Join(t.TempDir(), "absent"), nil, logger)

	res, err := f.Feed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Files)
	assert.Empty(t, res.Sources)
}
