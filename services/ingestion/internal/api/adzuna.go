package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"talentinsight/common/cache"
	"talentinsight/common/telemetry"
	"talentinsight/services/ingestion/internal/config"
	"talentinsight/services/ingestion/internal/models"

	"go.uber.org/zap"
)

const AdzunaSource = "adzuna_jobs"

// AdzunaClient searches the first result page of every country/query pair.
type AdzunaClient struct {
	http    *httpClient
	baseURL string
	appID   string
	apiKey  string

	countries []string
	queries   []string
	perPage   int
}

func NewAdzunaClient(cfg *config.Config, c cache.Cache, logger *zap.Logger) *AdzunaClient {
	return &AdzunaClient{
		http:      newHTTPClient(cfg, c, "adzuna", logger),
		baseURL:   cfg.AdzunaBaseURL,
		appID:     cfg.AdzunaAppID,
		apiKey:    cfg.AdzunaAPIKey,
		countries: cfg.AdzunaCountries,
		queries:   cfg.AdzunaQueries,
		perPage:   cfg.AdzunaResultsPerPage,
	}
}

func (a *AdzunaClient) Name() string { return AdzunaSource }

func (a *AdzunaClient) Fetch(ctx context.Context) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "AdzunaClient.Fetch")
	defer span.End()

	var docs []map[string]any
	first := true
	for _, country := range a.countries {
		for _, query := range a.queries {
			if !first {
				if err := a.http.pause(ctx); err != nil {
					return nil, err
				}
			}
			first = false

			params := url.Values{}
			params.Set("app_id", a.appID)
			params.Set("app_key", a.apiKey)
			params.Set("what", query)
			params.Set("results_per_page", strconv.Itoa(a.perPage))
			params.Set("content-type", "application/json")
			u := a.baseURL + "/jobs/" + url.PathEscape(country) + "/search/1?" + params.Encode()

			var resp models.AdzunaSearchResponse
			if err := a.http.getJSON(ctx, "search:"+country+":"+query, u, http.Header{}, &resp); err != nil {
				return nil, err
			}

			for _, job := range resp.Results {
				docs = append(docs, job.Document(country, query))
			}
			a.http.logger.Debug("adzuna page fetched",
				zap.String("country", country),
				zap.String("query", query),
				zap.Int("results", len(resp.Results)))
		}
	}

	span.SetAttributes(telemetry.Int("documents", len(docs)))
	return docs, nil
}

func newHTTPClient(cfg *config.Config, c cache.Cache, name string, logger *zap.Logger) *httpClient {
	return &httpClient{
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		cache:    c,
		cacheTTL: cfg.CacheTTL,
		prefix:   cache.Key(cfg.Cache().Prefix, name),
		retry: RetryPolicy{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.RetryDelay,
		},
		interval: cfg.RequestInterval,
		logger:   logger.With(zap.String("api", name)),
	}
}
