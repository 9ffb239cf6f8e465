package models

import (
	"github.com/shopspring/decimal"
)

// JobPosting is one cleaned posting from Adzuna, Indeed or LinkedIn. Skills
// holds the extracted labels in lexicon order; an empty list loads as the
// "Unknown" skill.
type JobPosting struct {
	Source        string
	CountryCode   string
	Title         string
	Company       string
	Location      string
	Skills        []string
	SalaryMin     decimal.NullDecimal
	SalaryMax     decimal.NullDecimal
	SalaryAvg     decimal.NullDecimal
	SalaryImputed bool
	DateKey       string
}

type GithubTrend struct {
	Source          string
	Language        string
	RepoName        string
	Stars           int64
	Forks           int64
	PopularityScore decimal.Decimal
	DateKey         string
}

type SearchTrend struct {
	Source        string
	Keyword       string
	Skill         string
	DateKey       string
	InterestValue *int64
}

type SurveyResponse struct {
	Source          string
	Country         string
	Salary          decimal.NullDecimal
	YearsExperience string
	DevType         string
	Languages       []string
}
