package models

import "strings"

// SourceStats counts what happened to one raw source during cleaning and
// loading.
type SourceStats struct {
	Raw             int `json:"raw"`
	Rejected        int `json:"rejected"`
	Duplicates      int `json:"duplicates"`
	Dropped         int `json:"dropped"`
	TransformErrors int `json:"transform_errors"`
	Cleaned         int `json:"cleaned"`
	Loaded          int `json:"loaded"`
	Sentinel        int `json:"sentinel"`
	SalaryImputed   int `json:"salary_imputed,omitempty"`
}

// Batch is the output of one source's cleaning routine.
type Batch struct {
	RawSource string
	Source    string
	Jobs      []JobPosting
	Github    []GithubTrend
	Search    []SearchTrend
	Survey    []SurveyResponse
	Stats     SourceStats
}

// Curated merges every source's batch for the load phase. Batches keep the
// order in which raw sources were listed so reloads are deterministic.
type Curated struct {
	Batches []Batch
}

// Companies returns distinct company names of all job postings in
// first-appearance order.
func (c *Curated) Companies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range c.Batches {
		for _, j := range b.Jobs {
			key := strings.ToLower(strings.TrimSpace(j.Company))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, j.Company)
		}
	}
	return out
}
