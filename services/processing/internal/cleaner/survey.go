package cleaner

import (
	"strings"

	"talentinsight/services/processing/internal/models"
	"talentinsight/services/processing/internal/salary"

	"github.com/shopspring/decimal"
)

// Plausible annual compensation, exclusive on both ends.
var (
	surveySalaryMin = decimal.NewFromInt(10000)
	surveySalaryMax = decimal.NewFromInt(500000)
)

// cleanSurvey handles Stack Overflow developer survey rows. Country is the
// only required field; implausible compensation is nulled, not dropped.
func cleanSurvey(c *Cleaner, b *models.Batch, docs []Document) {
	responses := make([]models.SurveyResponse, 0, len(docs))

	for _, doc := range docs {
		f := c.fields(b, doc)

		country := surveyText(f, "Country")
		if country == "" {
			b.Stats.Dropped++
			continue
		}

		comp := f.salary("CompTotal")
		if !salary.InRange(comp, surveySalaryMin, surveySalaryMax) {
			comp = decimal.NullDecimal{}
		}

		responses = append(responses, models.SurveyResponse{
			Source:          b.Source,
			Country:         c.countryKey(country),
			Salary:          comp,
			YearsExperience: surveyText(f, "YearsCodePro"),
			DevType:         surveyText(f, "DevType"),
			Languages:       splitLanguages(surveyText(f, "LanguageHaveWorkedWith"), c.skillLabel),
		})
	}

	b.Survey = responses
	b.Stats.Cleaned = len(responses)
}

// The survey CSV spells missing answers "NA".
func surveyText(f fields, key string) string {
	v := f.text(key)
	if strings.EqualFold(v, "na") {
		return ""
	}
	return v
}

// splitLanguages splits the ";" list and maps every item through label, so
// "Go;golang" yields one skill.
func splitLanguages(s string, label func(string) string) []string {
	if s == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ";") {
		lang := strings.TrimSpace(part)
		if lang == "" || strings.EqualFold(lang, "na") {
			continue
		}
		lang = label(lang)
		key := strings.ToLower(lang)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lang)
	}
	return out
}
