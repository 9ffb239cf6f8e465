package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompaniesFirstAppearanceOrder(t *testing.T) {
	c := Curated{Batches: []Batch{
		{Jobs: []JobPosting{{Company: "Acme"}, {Company: "Globex"}, {Company: "acme "}}},
		{Jobs: []JobPosting{{Company: ""}, {Company: "Initech"}, {Company: "Globex"}}},
		{Github: []GithubTrend{{RepoName: "x"}}},
	}}
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, c.Companies())
}
