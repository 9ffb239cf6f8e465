package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/lexicon"

	"gopkg.in/yaml.v3"
)

// CountrySentinel is the ISO2 key of the "Unknown" country member. Like
// dimension.Unknown for the other dimensions it is reserved.
const CountrySentinel = "ZZ"

//go:embed catalog.yaml
var defaultCatalog []byte

type Country struct {
	ISO2     string   `yaml:"iso2"`
	Name     string   `yaml:"name"`
	Region   string   `yaml:"region"`
	Currency string   `yaml:"currency"`
	Aliases  []string `yaml:"aliases"`
}

type Catalog struct {
	Countries []Country      `yaml:"countries"`
	Skills    []lexicon.Rule `yaml:"skills"`
	Sources   []string       `yaml:"sources"`

	countryIndex map[string]string
}

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Countries) == 0 || len(c.Skills) == 0 || len(c.Sources) == 0 {
		return fmt.Errorf("catalog needs countries, skills and sources")
	}

	c.countryIndex = make(map[string]string)
	for i := range c.Countries {
		country := &c.Countries[i]
		country.ISO2 = strings.ToUpper(strings.TrimSpace(country.ISO2))
		if len(country.ISO2) != 2 {
			return fmt.Errorf("country %q: iso2 must be two letters", country.Name)
		}
		if country.ISO2 == CountrySentinel {
			return fmt.Errorf("country %q: iso2 %s is reserved", country.Name, CountrySentinel)
		}
		if _, dup := c.countryIndex[fold(country.ISO2)]; dup {
			return fmt.Errorf("country %s listed twice", country.ISO2)
		}
		for _, name := range append([]string{country.ISO2, country.Name}, country.Aliases...) {
			c.countryIndex[fold(name)] = country.ISO2
		}
	}

	seen := make(map[string]bool)
	for _, s := range c.Sources {
		if strings.TrimSpace(s) == "" || seen[fold(s)] {
			return fmt.Errorf("source %q is empty or duplicated", s)
		}
		if reserved(s) {
			return fmt.Errorf("source %q is reserved", s)
		}
		seen[fold(s)] = true
	}

	for _, r := range c.Skills {
		if reserved(r.Label) {
			return fmt.Errorf("skill %q is reserved", r.Label)
		}
	}

	if _, err := lexicon.New(c.Skills); err != nil {
		return fmt.Errorf("skill lexicon: %w", err)
	}
	return nil
}

// Lexicon compiles the skill rules. The catalog was validated on load.
func (c *Catalog) Lexicon() *lexicon.Lexicon {
	lex, err := lexicon.New(c.Skills)
	if err != nil {
		panic(err)
	}
	return lex
}

// CountryCode maps an ISO code, English name or alias to its ISO2 code.
func (c *Catalog) CountryCode(value string) (string, bool) {
	code, ok := c.countryIndex[fold(value)]
	return code, ok
}

func reserved(name string) bool {
	return fold(name) == fold(dimension.Unknown)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
