// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package names

import (
	"strings"
	"unicode/utf8"
)

// Variants returns alternate renderings of name to retry a failed search.
// The first element is the trimmed input itself; callers that already
// searched for it should skip it. The surname (last token) is always kept
// whole. Output order is deterministic and contains no duplicates.
//
//	Variants("Ayşe Nur Demir") =
//	  ["Ayşe Nur Demir", "Ayse Nur Demir", "A. Nur Demir",
//	   "Ayse N. Demir", "A. N. Demir"]
func Variants(name string) []string {
	clean := collapse(name)
	if clean == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = collapse(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	add(clean)
	folded := Fold(clean)
	add(folded)

	parts := strings.Fields(folded)
	if len(parts) < 2 {
		return out
	}

	first := parts[0]
	last := parts[len(parts)-1]
	middles := parts[1 : len(parts)-1]

	add(joinTokens(initial(first), strings.Join(middles, " "), last))

	if len(middles) > 0 {
		mids := make([]string, len(middles))
		for i, m := range middles {
			mids[i] = initial(m)
		}
		midInitials := strings.Join(mids, " ")
		add(joinTokens(first, midInitials, last))
		add(joinTokens(initial(first), midInitials, last))
	}

	return out
}

// initial renders a token as its first letter followed by a period.
func initial(tok string) string {
	r, _ := utf8.DecodeRuneInString(tok)
	if r == utf8.RuneError {
		return tok
	}
	return string(r) + "."
}

func joinTokens(parts ...string) string {
	return collapse(strings.Join(parts, " "))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
