// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-enrich pipeline:
// roster records, search candidates, profile metrics, match assessments,
// batch ranges, and configuration.
package types

// SearchResult is a candidate profile found by a web search for a name.
// It is produced per search attempt and carries only what the search
// result itself exposes; deep metrics come from the profile page.
type SearchResult struct {
	// ProfileID is the external profile identifier (the "user" URL parameter).
	ProfileID string `json:"profile_id" yaml:"profile_id"`

	// DisplayName is the profile owner's name as shown in the result title.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Affiliation is the first hyphen-delimited segment of the snippet.
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	// Interests are the remaining snippet segments after boilerplate removal.
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`

	// SnippetCitations is the "cited by" count parsed from the snippet, or 0.
	SnippetCitations int `json:"snippet_citations" yaml:"snippet_citations"`
}

// Profile is a profile page read directly by identifier.
type Profile struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Affiliation string         `json:"affiliation" yaml:"affiliation"`
	Interests   []string       `json:"interests,omitempty" yaml:"interests,omitempty"`
	Metrics     ProfileMetrics `json:"metrics" yaml:"metrics"`
}

// YearCount is one point of a per-year series.
type YearCount struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

// ProfileMetrics holds the quantitative metrics scraped from a profile.
// The zero value is the result of a complete fetch failure.
type ProfileMetrics struct {
	TotalCitations   int         `json:"total_citations" yaml:"total_citations"`
	HIndex           int         `json:"h_index" yaml:"h_index"`
	I10Index         int         `json:"i10_index" yaml:"i10_index"`
	TotalDocuments   int         `json:"total_documents" yaml:"total_documents"`
	CitationsPerYear []YearCount `json:"citations_per_year,omitempty" yaml:"citations_per_year,omitempty"`
	DocumentsPerYear []YearCount `json:"documents_per_year,omitempty" yaml:"documents_per_year,omitempty"`
}

// IsZero reports whether no metric carries a value.
func (m ProfileMetrics) IsZero() bool {
	return m.TotalCitations == 0 && m.HIndex == 0 && m.I10Index == 0 &&
		m.TotalDocuments == 0 && len(m.CitationsPerYear) == 0 && len(m.DocumentsPerYear) == 0
}

// Match confidence scores.
const (
	ScoreMismatch     = 1
	ScoreInsufficient = 3
	ScoreStrong       = 5
)

// MatchAssessment rates how plausible it is that a found profile belongs
// to the intended person.
type MatchAssessment struct {
	Score     int    `json:"score" yaml:"score"`
	Rationale string `json:"rationale" yaml:"rationale"`
}
