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

const GitHubSource = "github_trends"

// GitHubClient lists the most starred recent repositories per language.
type GitHubClient struct {
	http         *httpClient
	baseURL      string
	token        string
	languages    []string
	createdAfter string
	perPage      int
}

func NewGitHubClient(cfg *config.Config, c cache.Cache, logger *zap.Logger) *GitHubClient {
	return &GitHubClient{
		http:         newHTTPClient(cfg, c, "github", logger),
		baseURL:      cfg.GitHubBaseURL,
		token:        cfg.GitHubToken,
		languages:    cfg.GitHubLanguages,
		createdAfter: cfg.GitHubCreatedAfter,
		perPage:      cfg.GitHubPerPage,
	}
}

func (g *GitHubClient) Name() string { return GitHubSource }

func (g *GitHubClient) Fetch(ctx context.Context) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "GitHubClient.Fetch")
	defer span.End()

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		header.Set("Authorization", "token "+g.token)
	}

	var docs []map[string]any
	for i, lang := range g.languages {
		if i > 0 {
			if err := g.http.pause(ctx); err != nil {
				return nil, err
			}
		}

		params := url.Values{}
		params.Set("q", "language:"+lang+" created:>"+g.createdAfter)
		params.Set("sort", "stars")
		params.Set("order", "desc")
		params.Set("per_page", strconv.Itoa(g.perPage))
		u := g.baseURL + "/search/repositories?" + params.Encode()

		var resp models.GitHubSearchResponse
		if err := g.http.getJSON(ctx, "repos:"+lang+":"+g.createdAfter, u, header, &resp); err != nil {
			return nil, err
		}
		for _, repo := range resp.Items {
			docs = append(docs, repo.Document(lang))
		}
	}

	span.SetAttributes(telemetry.Int("documents", len(docs)))
	return docs, nil
}
