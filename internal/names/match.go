// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package names

import (
	"fmt"
	"strings"
)

// Matcher decides whether two renderings name the same person. The merge
// stage depends only on this interface so the heuristic can be replaced.
type Matcher interface {
	Match(original, candidate string) (bool, string)
}

// TokenPolicy is the token-overlap name heuristic.
type TokenPolicy struct {
	// MinShared shared tokens are enough on their own.
	MinShared int

	// MinTokenLen is the minimum length of a lone shared token (surname)
	// for the single-token rules to apply.
	MinTokenLen int

	// AllowEmptyRemainder accepts a single shared token when either side has
	// nothing left over. Permissive: "Demir" matches "Mehmet Demir".
	AllowEmptyRemainder bool

	// InitialFallback accepts a single shared token when the first leftover
	// tokens of both sides start with the same letter ("A. Yilmaz").
	InitialFallback bool
}

// DefaultPolicy returns the policy used by the merge stage.
func DefaultPolicy() TokenPolicy {
	return TokenPolicy{
		MinShared:           2,
		MinTokenLen:         3,
		AllowEmptyRemainder: true,
		InitialFallback:     true,
	}
}

// Match reports whether original and candidate plausibly name the same
// person, with a short reason.
func (p TokenPolicy) Match(original, candidate string) (bool, string) {
	n1 := NormalizeName(original)
	n2 := NormalizeName(candidate)
	if n1 == "" || n2 == "" {
		return false, "empty name"
	}

	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return true, "containment"
	}

	parts1 := strings.Fields(n1)
	parts2 := strings.Fields(n2)
	set2 := make(map[string]bool, len(parts2))
	for _, t := range parts2 {
		set2[t] = true
	}
	common := make(map[string]bool)
	for _, t := range parts1 {
		if set2[t] {
			common[t] = true
		}
	}

	if len(common) >= p.MinShared {
		return true, fmt.Sprintf("%d shared tokens", len(common))
	}
	if len(common) == 0 {
		return false, "no shared tokens"
	}

	long := false
	for t := range common {
		if len(t) >= p.MinTokenLen {
			long = true
		}
	}
	if !long {
		return false, "shared token too short"
	}

	rem1 := remainder(parts1, common)
	rem2 := remainder(parts2, common)
	if len(rem1) == 0 || len(rem2) == 0 {
		if p.AllowEmptyRemainder {
			return true, "single shared token, no remainder"
		}
		return false, "single shared token, no remainder"
	}
	if p.InitialFallback && rem1[0][0] == rem2[0][0] {
		return true, "shared surname, matching initial"
	}
	return false, "single shared token, initials differ"
}

// NormalizeName folds, lowercases, and replaces name punctuation with spaces.
func NormalizeName(s string) string {
	s = FoldLower(s)
	s = namePunct.Replace(s)
	return collapse(s)
}

var namePunct = strings.NewReplacer(
	".", " ", "-", " ", ",", " ", "(", " ", ")", " ",
	"[", " ", "]", " ", "'", " ", `"`, " ",
)

func remainder(parts []string, common map[string]bool) []string {
	var rem []string
	for _, t := range parts {
		if !common[t] {
			rem = append(rem, t)
		}
	}
	return rem
}
