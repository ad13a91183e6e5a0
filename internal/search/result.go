// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

var (
	citedByEN = regexp.MustCompile(`(?i)cited by\s+([\d,]+)`)
	citedByTR = regexp.MustCompile(`(?i)([\d.,]+)\s+tarafından alıntılandı`)

	// Directional formatting marks the search engine leaves in snippets.
	bidiMarks = strings.NewReplacer("\u202a", "", "\u202c", "", "\u200e", "", "\u200f", "")

	titleSuffixes = strings.NewReplacer(" - Google Scholar", "", " - Google Akademik", "")

	// Snippet segments that are never interests (compared lowercased).
	boilerplate = []string{
		"cited by", "tarafından alıntılandı",
		"verified email", "doğrulanmış e-posta",
		"google scholar", "google akademik",
	}
)

// parseResult turns a search result into a SearchResult when its link is a
// scholar profile.
func parseResult(r organicResult) (types.SearchResult, bool) {
	id, ok := profileID(r.Link)
	if !ok {
		return types.SearchResult{}, false
	}
	aff, cites, interests := parseSnippet(r.Snippet)
	return types.SearchResult{
		ProfileID:        id,
		DisplayName:      strings.TrimSpace(titleSuffixes.Replace(r.Title)),
		Affiliation:      aff,
		Interests:        interests,
		SnippetCitations: cites,
	}, true
}

// profileID extracts the "user" parameter from a scholar profile link.
func profileID(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || !strings.Contains(u.Host, "scholar.google") {
		return "", false
	}
	id := u.Query().Get("user")
	if id == "" {
		return "", false
	}
	return id, true
}

// parseSnippet splits a profile snippet on " - ": the first segment is the
// affiliation, a "cited by" segment gives the citation count, and the
// remaining non-boilerplate segments are interests.
func parseSnippet(raw string) (affiliation string, citations int, interests []string) {
	snippet := bidiMarks.Replace(raw)
	parts := strings.Split(snippet, " - ")
	affiliation = strings.TrimSpace(parts[0])
	citations = parseCitedBy(snippet)

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == affiliation || isBoilerplate(p) {
			continue
		}
		interests = append(interests, p)
	}
	return affiliation, citations, interests
}

func parseCitedBy(snippet string) int {
	if m := citedByEN.FindStringSubmatch(snippet); m != nil {
		return atoi(strings.ReplaceAll(m[1], ",", ""))
	}
	if m := citedByTR.FindStringSubmatch(snippet); m != nil {
		return atoi(strings.NewReplacer(".", "", ",", "").Replace(m[1]))
	}
	return 0
}

func isBoilerplate(s string) bool {
	lower := strings.ToLower(s)
	for _, b := range boilerplate {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
