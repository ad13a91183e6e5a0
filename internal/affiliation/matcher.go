// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package affiliation scores whether a found profile's affiliation is
// consistent with the affiliation declared for a roster entry.
package affiliation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/scholar-enrich/internal/names"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// Abbreviations maps folded, lowercased institution short forms and local
// spellings to a canonical English name.
var Abbreviations = map[string]string{
	"odtu":                             "middle east technical university",
	"metu":                             "middle east technical university",
	"orta dogu teknik universitesi":    "middle east technical university",
	"itu":                              "istanbul technical university",
	"istanbul teknik universitesi":     "istanbul technical university",
	"boun":                             "bogazici university",
	"bogazici":                         "bogazici university",
	"iyte":                             "izmir institute of technology",
	"izmir yuksek teknoloji enstitusu": "izmir institute of technology",
	"ku":                               "koc university",
	"su":                               "sabanci university",
	"bilkent":                          "bilkent university",
	"hacettepe":                        "hacettepe university",
}

// StopWords are generic academic terms and titles that carry no identity.
var StopWords = map[string]bool{
	"university": true, "universitesi": true, "univ": true, "uni": true,
	"faculty": true, "fakultesi": true, "department": true, "bolumu": true,
	"institute": true, "enstitusu": true, "school": true, "college": true,
	"of": true, "the": true, "and": true, "for": true,
	"prof": true, "assoc": true, "asst": true, "dr": true, "professor": true,
}

// Matcher assesses affiliation consistency.
type Matcher struct {
	abbrevs   []abbrev
	stopWords map[string]bool
}

type abbrev struct {
	pattern *regexp.Regexp
	full    string
}

// NewMatcher builds a Matcher from an abbreviation table and stop-word set.
// Nil arguments select the package defaults.
func NewMatcher(abbreviations map[string]string, stopWords map[string]bool) *Matcher {
	if abbreviations == nil {
		abbreviations = Abbreviations
	}
	if stopWords == nil {
		stopWords = StopWords
	}

	keys := make([]string, 0, len(abbreviations))
	for k := range abbreviations {
		keys = append(keys, k)
	}
	// Longest first so "istanbul teknik universitesi" wins over shorter keys.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	m := &Matcher{stopWords: stopWords}
	for _, k := range keys {
		m.abbrevs = append(m.abbrevs, abbrev{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`),
			full:    abbreviations[k],
		})
	}
	return m
}

// Assess returns a MatchAssessment for the declared (original) and found
// affiliations. The score is a confidence signal, not a gate.
func (m *Matcher) Assess(original, found string) types.MatchAssessment {
	if strings.TrimSpace(found) == "" {
		return types.MatchAssessment{Score: types.ScoreInsufficient, Rationale: "no affiliation in profile"}
	}
	if strings.TrimSpace(original) == "" {
		return types.MatchAssessment{Score: types.ScoreInsufficient, Rationale: "no original affiliation to compare"}
	}

	orgNorm := m.expand(names.FoldLower(original))
	foundNorm := m.expand(names.FoldLower(found))

	orgTokens := m.tokens(orgNorm)
	foundTokens := m.tokens(foundNorm)

	var common []string
	for t := range orgTokens {
		if foundTokens[t] {
			common = append(common, t)
		}
	}
	if len(common) > 0 {
		sort.Strings(common)
		return types.MatchAssessment{
			Score:     types.ScoreStrong,
			Rationale: "matched tokens: " + strings.Join(common, ", "),
		}
	}

	if strings.Contains(foundNorm, orgNorm) || strings.Contains(orgNorm, foundNorm) {
		return types.MatchAssessment{Score: types.ScoreStrong, Rationale: "substring match"}
	}

	return types.MatchAssessment{
		Score:     types.ScoreMismatch,
		Rationale: fmt.Sprintf("affiliation mismatch: '%s' vs '%s'", original, found),
	}
}

// expand replaces whole-word abbreviations with canonical names. Each key
// is applied once, against the text as left by longer keys.
func (m *Matcher) expand(s string) string {
	for _, a := range m.abbrevs {
		s = a.pattern.ReplaceAllLiteralString(s, a.full)
	}
	return strings.Join(strings.Fields(s), " ")
}

func (m *Matcher) tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(t) <= 2 || m.stopWords[t] {
			continue
		}
		out[t] = true
	}
	return out
}
