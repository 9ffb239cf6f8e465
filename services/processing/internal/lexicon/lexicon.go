// Package lexicon extracts skill labels from free text using a declarative,
// priority-ordered rule list.
package lexicon

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule maps search terms to a skill label. Keywords match anywhere in the
// lower-cased text; Words match only on word boundaries ("go", "js").
// Excludes names earlier rules whose matched text is masked before this rule
// is tested, so "javascript" never counts as "java".
type Rule struct {
	Label    string   `yaml:"label"`
	Group    string   `yaml:"group"`
	Keywords []string `yaml:"keywords"`
	Words    []string `yaml:"words"`
	Excludes []string `yaml:"excludes"`
}

type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	excludes []*regexp.Regexp
}

type Lexicon struct {
	rules []compiledRule
}

func New(rules []Rule) (*Lexicon, error) {
	index := make(map[string]int, len(rules))
	compiled := make([]compiledRule, 0, len(rules))

	for i, r := range rules {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, fmt.Errorf("rule %d: empty label", i)
		}
		key := strings.ToLower(label)
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("rule %q: duplicate label", label)
		}

		pattern, err := compileTerms(r.Keywords, r.Words)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", label, err)
		}

		cr := compiledRule{Rule: r, pattern: pattern}
		cr.Label = label
		for _, ex := range r.Excludes {
			j, ok := index[strings.ToLower(strings.TrimSpace(ex))]
			if !ok {
				return nil, fmt.Errorf("rule %q: excludes %q which is not an earlier rule", label, ex)
			}
			if compiled[j].pattern != nil {
				cr.excludes = append(cr.excludes, compiled[j].pattern)
			}
		}

		index[key] = i
		compiled = append(compiled, cr)
	}

	return &Lexicon{rules: compiled}, nil
}

func compileTerms(keywords, words []string) (*regexp.Regexp, error) {
	var alts []string
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			alts = append(alts, regexp.QuoteMeta(k))
		}
	}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			alts = append(alts, `\b`+regexp.QuoteMeta(w)+`\b`)
		}
	}
	if len(alts) == 0 {
		// label-only rule: resolvable as a dimension member, never extracted
		return nil, nil
	}
	return regexp.Compile(strings.Join(alts, "|"))
}

// Extract returns the labels matched in text, in rule order, without
// duplicates. No match yields an empty slice.
func (l *Lexicon) Extract(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	var labels []string
	for _, r := range l.rules {
		if r.pattern == nil {
			continue
		}
		candidate := lower
		for _, ex := range r.excludes {
			candidate = mask(candidate, ex)
		}
		if r.pattern.MatchString(candidate) {
			labels = append(labels, r.Label)
		}
	}
	return labels
}

// Canonical maps a term to a rule label: an exact label match first
// (case-insensitive), then the first extracted label.
func (l *Lexicon) Canonical(term string) (string, bool) {
	t := strings.TrimSpace(term)
	for _, r := range l.rules {
		if strings.EqualFold(r.Label, t) {
			return r.Label, true
		}
	}
	if labels := l.Extract(t); len(labels) > 0 {
		return labels[0], true
	}
	return "", false
}

func (l *Lexicon) Rules() []Rule {
	out := make([]Rule, len(l.rules))
	for i, r := range l.rules {
		out[i] = r.Rule
	}
	return out
}

func mask(text string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}
