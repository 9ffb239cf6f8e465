package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"talentinsight/common/database"
	"talentinsight/common/errors"
	"talentinsight/common/events"
	"talentinsight/common/rawstore"
	"talentinsight/services/ingestion/internal/api"
	"talentinsight/services/ingestion/internal/config"
	"talentinsight/services/ingestion/internal/feeder"
	"talentinsight/services/ingestion/internal/ingestor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeFetcher struct {
	name string
	docs []map[string]any
	err  error
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]map[string]any, error) {
	return f.docs, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.RawBatchIngested
	err    error
}

func (p *fakePublisher) PublishBatchIngested(ctx context.Context, ev events.RawBatchIngested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) published() []events.RawBatchIngested {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.RawBatchIngested(nil), p.events...)
}

func newIngestor(t *testing.T, logger *zap.Logger) (*ingestor.Ingestor, rawstore.Store) {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	store, err := rawstore.NewSQLiteStore(context.Background(), db, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ingestor.New(store, logger), store
}

func jobs(ids ...string) []map[string]any {
	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"id": id, "title": "Go Developer"}
	}
	return out
}

func TestRunCycle(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ing, store := newIngestor(t, logger)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stackoverflow_survey_2024.csv"),
		[]byte("Country,CompTotal\nGermany,85000\nFrance,60000\n"), 0o644))

	fetchers := []api.Fetcher{
		&fakeFetcher{name: "adzuna_jobs", docs: jobs("1", "2", "2")},
		&fakeFetcher{name: "github_trends", err: errors.Fetch("GET failed after 4 attempts", nil)},
	}
	pub := &fakePublisher{}
	s := NewJobScheduler(fetchers, ing, feeder.New(dir, ing, logger), pub, logger, &config.Config{PollingInterval: time.Hour})

	ev, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, ev.CycleID)
	assert.Equal(t, events.SourceCounts{Stored: 2, Duplicates: 1}, ev.Sources["adzuna_jobs"])
	assert.Equal(t, events.SourceCounts{Stored: 2}, ev.Sources["stackoverflow_survey_2024"])
	assert.Equal(t, []string{"github_trends"}, ev.Failed)
	assert.Equal(t, 4, ev.StoredTotal())
	require.Len(t, pub.published(), 1)
	assert.Equal(t, ev, pub.published()[0])

	// the next cycle sees the same content and stores nothing
	ev, err = s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ev.StoredTotal())
	assert.Equal(t, events.SourceCounts{Duplicates: 3}, ev.Sources["adzuna_jobs"])

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"adzuna_jobs": 2, "stackoverflow_survey_2024": 2}, counts)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Cycles)
	assert.Equal(t, int64(0), stats.FailedCycles)
	assert.Equal(t, int64(4), stats.Stored)
	assert.Equal(t, int64(2), stats.FailedSources)
}

func TestRunCycleWithoutSources(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ing, _ := newIngestor(t, logger)
	pub := &fakePublisher{}
	s := NewJobScheduler(nil, ing, nil, pub, logger, &config.Config{PollingInterval: time.Hour})

	ev, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ev.Sources)
	assert.Len(t, pub.published(), 1)
}

func TestRunCyclePublishFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ing, _ := newIngestor(t, logger)
	pub := &fakePublisher{err: errors.Unavailable("publishing to NATS", nil)}
	fetchers := []api.Fetcher{&fakeFetcher{name: "adzuna_jobs", docs: jobs("1")}}
	s := NewJobScheduler(fetchers, ing, nil, pub, logger, &config.Config{PollingInterval: time.Hour})

	_, err := s.RunCycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUnavailable))
	assert.Equal(t, int64(1), s.Stats().FailedCycles)
}

func TestStartStopsOnCancel(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ing, _ := newIngestor(t, logger)
	pub := &fakePublisher{}
	fetchers := []api.Fetcher{&fakeFetcher{name: "adzuna_jobs", docs: jobs("1")}}
	s := NewJobScheduler(fetchers, ing, nil, pub, logger, &config.Config{PollingInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return len(pub.published()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
