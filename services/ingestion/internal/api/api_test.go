package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"talentinsight/common/cache"
	"talentinsight/common/cache/memory"
	"talentinsight/common/errors"
	"talentinsight/services/ingestion/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AdzunaBaseURL:        baseURL,
		AdzunaAppID:          "id",
		AdzunaAPIKey:         "key",
		AdzunaCountries:      []string{"fr", "de"},
		AdzunaQueries:        []string{"go developer"},
		AdzunaResultsPerPage: 50,
		GitHubBaseURL:        baseURL,
		GitHubToken:          "secret",
		GitHubLanguages:      []string{"Go"},
		GitHubCreatedAfter:   "2024-01-01",
		GitHubPerPage:        100,
		HTTPTimeout:          5 * time.Second,
		MaxRetries:           2,
		RetryDelay:           time.Millisecond,
		CacheTTL:             time.Minute,
	}
}

func newTestCache(t *testing.T) cache.Cache {
	c := memory.New(cache.Options{DefaultTTL: time.Minute})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAdzunaFetch(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		assert.Equal(t, "go developer", r.URL.Query().Get("what"))
		switch r.URL.Path {
		case "/jobs/fr/search/1":
			w.Write([]byte(`{"count": 1, "results": [{"title": "Go Developer", "company": {"display_name": "Acme"},
				"location": {"display_name": "Paris"}, "salary_min": 50000, "created": "2024-03-01T10:00:00Z"}]}`))
		case "/jobs/de/search/1":
			w.Write([]byte(`{"count": 0, "results": []}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewAdzunaClient(testConfig(srv.URL), newTestCache(t), zaptest.NewLogger(t))
	assert.Equal(t, "adzuna_jobs", client.Name())

	docs, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fr", docs[0]["country"])
	assert.Equal(t, "Acme", docs[0]["company"])
	assert.EqualValues(t, 2, requests.Load())

	// second fetch is served from the cache
	_, err = client.Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, requests.Load())
}

func TestGitHubFetchRetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "language:Go created:>2024-01-01", r.URL.Query().Get("q"))
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"total_count": 1, "items": [{"name": "fast", "full_name": "acme/fast",
			"stargazers_count": 120, "forks_count": 7, "created_at": "2024-02-10T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	client := NewGitHubClient(testConfig(srv.URL), newTestCache(t), zaptest.NewLogger(t))
	docs, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Go", docs[0]["language"])
	assert.Equal(t, int64(120), docs[0]["stars"])
	assert.EqualValues(t, 3, requests.Load())
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewGitHubClient(testConfig(srv.URL), newTestCache(t), zaptest.NewLogger(t))
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFetch))
	assert.EqualValues(t, 3, requests.Load(), "one attempt plus two retries")
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewAdzunaClient(testConfig(srv.URL), newTestCache(t), zaptest.NewLogger(t))
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFetch))
	assert.EqualValues(t, 1, requests.Load())
}

func TestNewCacheSelectsBackend(t *testing.T) {
	_, ok := NewCache(cache.Options{}).(*memory.Cache)
	assert.True(t, ok)
}
