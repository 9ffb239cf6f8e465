package cleaner

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const amount = `(\d{1,3}(?:[.,]\d{3})+|\d+)`

// Patterns are tried in order against the lower-cased description.
var salaryPatterns = []struct {
	re     *regexp.Regexp
	single bool
}{
	// 50k€ - 70k€, 50000€ - 70000€, 50k - 70k
	{re: regexp.MustCompile(amount + `\s*(k)?\s*[€$]\s*-\s*` + amount + `\s*(k)?\s*[€$]`)},
	{re: regexp.MustCompile(amount + `\s*(k)\s*-\s*` + amount + `\s*(k)`)},
	// €50k - €70k, $50,000 - $70,000
	{re: regexp.MustCompile(`[€$]\s*` + amount + `\s*(k)?\s*-\s*[€$]?\s*` + amount + `\s*(k)?`)},
	// salary: 50k, compensation: €55,000
	{re: regexp.MustCompile(`(?:salary|compensation):\s*[€$]?\s*` + amount + `\s*(k)?`), single: true},
}

// salaryFromText extracts a salary range from free text. A "k" suffix scales
// only the bound it follows, so "50k - 70,000" reads as 50000 to 70000.
func salaryFromText(text string) (min, max decimal.NullDecimal, ok bool) {
	lower := strings.ToLower(text)
	for _, p := range salaryPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		lo, err := parseAmount(m[1])
		if err != nil {
			continue
		}
		lo = thousands(lo, m[2])
		hi := lo
		if !p.single {
			if hi, err = parseAmount(m[3]); err != nil {
				continue
			}
			hi = thousands(hi, m[4])
		}
		return decimal.NewNullDecimal(lo), decimal.NewNullDecimal(hi), true
	}
	return decimal.NullDecimal{}, decimal.NullDecimal{}, false
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	return decimal.NewFromString(s)
}

func thousands(v decimal.Decimal, suffix string) decimal.Decimal {
	if suffix == "k" {
		return v.Mul(decimal.NewFromInt(1000))
	}
	return v
}
