package models

import (
	"encoding/json"
)

// GitHubSearchResponse is one page of the repository search API.
type GitHubSearchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []GitHubRepo `json:"items"`
}

type GitHubRepo struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	StargazersCount int64  `json:"stargazers_count"`
	ForksCount      int64  `json:"forks_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	Owner           struct {
		Location string `json:"location"`
	} `json:"owner"`
}

// Document is the raw github_trends shape; language is the one searched for.
func (r GitHubRepo) Document(language string) map[string]any {
	return map[string]any{
		"source":         "github",
		"language":       language,
		"name":           r.Name,
		"full_name":      r.FullName,
		"owner_location": r.Owner.Location,
		"stars":          r.StargazersCount,
		"forks":          r.ForksCount,
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
		"description":    r.Description,
	}
}

func (r GitHubSearchResponse) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *GitHubSearchResponse) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
