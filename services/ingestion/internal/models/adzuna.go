package models

import (
	"encoding/json"
)

// AdzunaSearchResponse is one page of the Adzuna job search API.
type AdzunaSearchResponse struct {
	Count   int         `json:"count"`
	Results []AdzunaJob `json:"results"`
}

type AdzunaJob struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Created     string      `json:"created"`
	SalaryMin   json.Number `json:"salary_min,omitempty"`
	SalaryMax   json.Number `json:"salary_max,omitempty"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

// Document flattens the posting into the raw adzuna_jobs shape, tagged with
// the country and query it was found with. The posting id is kept so distinct
// postings with identical text stay distinct. Missing salaries stay null.
func (j AdzunaJob) Document(country, query string) map[string]any {
	doc := map[string]any{
		"id":          j.ID,
		"source":      "adzuna",
		"country":     country,
		"query":       query,
		"title":       j.Title,
		"company":     j.Company.DisplayName,
		"location":    j.Location.DisplayName,
		"description": j.Description,
		"created":     j.Created,
		"salary_min":  nil,
		"salary_max":  nil,
	}
	if j.SalaryMin != "" {
		doc["salary_min"] = j.SalaryMin
	}
	if j.SalaryMax != "" {
		doc["salary_max"] = j.SalaryMax
	}
	return doc
}

func (r AdzunaSearchResponse) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *AdzunaSearchResponse) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
