// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// legacyMarkers are unresolved markers older datasets used in place of
// the sentinel id.
var legacyMarkers = []string{"no id found", "none", "nan"}

// VerifyReport is the result of checking a dataset's sentinel integrity.
type VerifyReport struct {
	Rows       int `yaml:"rows"`
	Resolved   int `yaml:"resolved"`
	Unresolved int `yaml:"unresolved"`

	// LegacyMarkers are rows whose id is empty or a non-standard marker.
	LegacyMarkers []int `yaml:"legacy_markers,omitempty"`
	// Leaked are unresolved rows that still carry enrichment values.
	Leaked []int `yaml:"leaked,omitempty"`
	// MissingName are resolved rows without a profile name.
	MissingName []int `yaml:"missing_name,omitempty"`
	// ZeroCitations are resolved rows reporting no citations. Not an
	// error; worth a look.
	ZeroCitations []int `yaml:"zero_citations,omitempty"`
}

// OK reports whether the dataset passed every integrity check.
func (r VerifyReport) OK() bool {
	return len(r.LegacyMarkers) == 0 && len(r.Leaked) == 0 && len(r.MissingName) == 0
}

// Verify checks every row of t cell by cell: an unresolved row may carry
// nothing but the sentinel id and its status, and a resolved row must name
// its profile. Row numbers in the report come from the source_row column.
func Verify(t artifact.Table) (VerifyReport, error) {
	var report VerifyReport
	source, err := artifact.SourceColumns(t.Header)
	if err != nil {
		return report, fmt.Errorf("not an enriched dataset: %w", err)
	}
	col := func(name string) int {
		return 1 + len(source) + slices.Index(artifact.EnrichmentColumns, name)
	}

	rowIdx := 0
	idIdx := col("scholar_id")
	nameIdx := col("scholar_name")
	citesIdx := col("total_citations")
	statusIdx := col("resolution")

	for i, row := range t.Rows {
		pos, err := strconv.Atoi(row[rowIdx])
		if err != nil {
			pos = i
		}
		report.Rows++

		id := strings.TrimSpace(row[idIdx])
		if id == "" || isLegacyMarker(id) {
			report.LegacyMarkers = append(report.LegacyMarkers, pos)
			report.Unresolved++
			continue
		}

		if id == types.UnresolvedID {
			report.Unresolved++
			for c := idIdx + 1; c < statusIdx; c++ {
				if v := strings.TrimSpace(row[c]); v != "" && v != "0" {
					report.Leaked = append(report.Leaked, pos)
					break
				}
			}
			continue
		}

		report.Resolved++
		if strings.TrimSpace(row[nameIdx]) == "" {
			report.MissingName = append(report.MissingName, pos)
		}
		if c := strings.TrimSpace(row[citesIdx]); c == "" || c == "0" {
			report.ZeroCitations = append(report.ZeroCitations, pos)
		}
	}
	return report, nil
}

func isLegacyMarker(id string) bool {
	lower := strings.ToLower(id)
	for _, m := range legacyMarkers {
		if lower == m {
			return true
		}
	}
	return false
}

// Print writes a human-readable summary of r to w.
func (r VerifyReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Rows:       %d\n", r.Rows)
	fmt.Fprintf(w, "Resolved:   %d\n", r.Resolved)
	fmt.Fprintf(w, "Unresolved: %d (sentinel %s)\n\n", r.Unresolved, types.UnresolvedID)

	check := func(label string, rows []int) {
		if len(rows) == 0 {
			fmt.Fprintf(w, "  ok    %s\n", label)
			return
		}
		fmt.Fprintf(w, "  FAIL  %s: %d rows %v\n", label, len(rows), rows)
	}
	check("unresolved marker standardized", r.LegacyMarkers)
	check("unresolved rows carry no metrics", r.Leaked)
	check("resolved rows name their profile", r.MissingName)

	if len(r.ZeroCitations) > 0 {
		fmt.Fprintf(w, "  note  %d resolved rows report zero citations %v\n", len(r.ZeroCitations), r.ZeroCitations)
	}
}
