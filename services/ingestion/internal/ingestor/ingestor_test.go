package ingestor

import (
	"context"
	"testing"

	"talentinsight/common/database"
	"talentinsight/common/errors"
	"talentinsight/common/rawstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestIngestor(t *testing.T) (*Ingestor, rawstore.Store) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db, err := database.NewSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	store, err := rawstore.NewSQLiteStore(ctx, db, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, logger), store
}

func TestIngestIsIdempotentAcrossFieldOrder(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()

	stored, err := ing.Ingest(ctx, "adzuna_jobs", []byte(`{"title": "Go Dev", "salary_min": 45000, "tags": {"b": 1, "a": 2}}`))
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = ing.Ingest(ctx, "adzuna_jobs", []byte(`{"tags": {"a": 2, "b": 1}, "salary_min": 45000, "title": "Go Dev"}`))
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = ing.IngestDocument(ctx, "adzuna_jobs", map[string]any{
		"title": "Go Dev", "salary_min": 45000, "tags": map[string]any{"a": 2, "b": 1},
	})
	require.NoError(t, err)
	assert.False(t, stored)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"adzuna_jobs": 1}, counts)
}

func TestIngestRejectsMalformedPayloads(t *testing.T) {
	ing, _ := newTestIngestor(t)
	ctx := context.Background()

	for _, payload := range []string{`[1, 2]`, `"text"`, `{"a": 1`, `null`} {
		_, err := ing.Ingest(ctx, "github_trends", []byte(payload))
		require.Error(t, err, payload)
		assert.True(t, errors.IsType(err, errors.ErrTypeIngestion), payload)
	}

	_, err := ing.Ingest(ctx, "", []byte(`{}`))
	assert.True(t, errors.IsType(err, errors.ErrTypeIngestion))
}

func TestIngestBatchContinuesPastBadDocuments(t *testing.T) {
	ing, _ := newTestIngestor(t)

	res, err := ing.IngestBatch(context.Background(), "google_trends", [][]byte{
		[]byte(`{"keyword": "python"}`),
		[]byte(`not json`),
		[]byte(`{"keyword": "python"}`),
		[]byte(`{"keyword": "rust"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Stored: 2, Duplicates: 1, Rejected: 1}, res)
}

func TestIngestDocumentsFromDifferentSourcesAreDistinct(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()
	doc := map[string]any{"title": "Data Scientist"}

	res, err := ing.IngestDocuments(ctx, "indeed_jobs", []map[string]any{doc, nil})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Stored: 1, Rejected: 1}, res)

	stored, err := ing.IngestDocument(ctx, "linkedin_jobs", doc)
	require.NoError(t, err)
	assert.True(t, stored)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"indeed_jobs": 1, "linkedin_jobs": 1}, counts)
}
