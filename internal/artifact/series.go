// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

const (
	seriesSep    = " | "
	interestsSep = "; "
)

// FormatSeries renders a year series as "2021:110 | 2022:205".
func FormatSeries(series []types.YearCount) string {
	parts := make([]string, len(series))
	for i, yc := range series {
		parts[i] = strconv.Itoa(yc.Year) + ":" + strconv.Itoa(yc.Count)
	}
	return strings.Join(parts, seriesSep)
}

// ParseSeries reverses FormatSeries. An empty cell is an empty series.
func ParseSeries(cell string) ([]types.YearCount, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	var out []types.YearCount
	for _, part := range strings.Split(cell, strings.TrimSpace(seriesSep)) {
		year, count, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("series entry %q: missing ':'", part)
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, fmt.Errorf("series entry %q: bad year: %w", part, err)
		}
		c, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("series entry %q: bad count: %w", part, err)
		}
		out = append(out, types.YearCount{Year: y, Count: c})
	}
	return out, nil
}

// FormatInterests joins interests with "; ". Commas inside an interest are
// kept; a semicolon inside one is written as a comma.
func FormatInterests(interests []string) string {
	parts := make([]string, len(interests))
	for i, in := range interests {
		parts[i] = strings.ReplaceAll(in, ";", ",")
	}
	return strings.Join(parts, interestsSep)
}

// ParseInterests splits on semicolons and drops empty entries.
func ParseInterests(cell string) []string {
	var out []string
	for _, p := range strings.Split(cell, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
