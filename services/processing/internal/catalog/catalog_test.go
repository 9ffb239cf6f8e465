package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Len(t, c.Countries, 9)
	assert.Equal(t, []string{"Adzuna", "GitHub", "Google Trends", "Stack Overflow", "Indeed", "LinkedIn"}, c.Sources)
	assert.Equal(t, "Python", c.Skills[0].Label)

	for _, in := range []string{"fr", "FR", "France", " france ", "Deutschland"} {
		_, ok := c.CountryCode(in)
		assert.True(t, ok, in)
	}
	code, ok := c.CountryCode("Deutschland")
	require.True(t, ok)
	assert.Equal(t, "DE", code)

	_, ok = c.CountryCode("XX")
	assert.False(t, ok)

	assert.Equal(t, []string{"JavaScript"}, c.Lexicon().Extract("Senior JavaScript Developer"))
	assert.Equal(t, []string{"Python", "Java"}, c.Lexicon().Extract("Python/Java Developer"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
countries:
  - {iso2: pt, name: Portugal, region: Southern Europe, currency: EUR}
skills:
  - {label: Elixir, group: Programming Language, keywords: [elixir]}
sources: [Adzuna]
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "PT", c.Countries[0].ISO2)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":            `{}`,
		"bad iso":          "countries: [{iso2: FRA, name: France}]\nskills: [{label: Go}]\nsources: [A]",
		"dup country":      "countries: [{iso2: FR, name: France}, {iso2: fr, name: Fr}]\nskills: [{label: Go}]\nsources: [A]",
		"dup source":       "countries: [{iso2: FR, name: France}]\nskills: [{label: Go}]\nsources: [A, a]",
		"late excludes":    "countries: [{iso2: FR, name: France}]\nskills: [{label: Java, keywords: [java], excludes: [JavaScript]}, {label: JavaScript, keywords: [javascript]}]\nsources: [A]",
		"not yaml":         "countries: [",
		"unknown skill":    "countries: [{iso2: FR, name: France}]\nskills: [{label: Go}, {label: unknown}]\nsources: [A]",
		"unknown source":   "countries: [{iso2: FR, name: France}]\nskills: [{label: Go}]\nsources: [A, Unknown]",
		"sentinel country": "countries: [{iso2: zz, name: Nowhere}]\nskills: [{label: Go}]\nsources: [A]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
