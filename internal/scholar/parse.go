// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// Summary table labels in English and Turkish.
var (
	citationLabels = []string{"citations", "alıntılar"}
	hIndexLabels   = []string{"h-index", "h-endeksi"}
	i10IndexLabels = []string{"i10-index", "i10-endeksi"}
)

// parseSummary reads the "All" column of the metrics table (#gsc_rsb_st).
func parseSummary(doc *goquery.Document, m *types.ProfileMetrics) {
	doc.Find("#gsc_rsb_st tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cols.Eq(0).Text()))
		value := atoiOrZero(cols.Eq(1).Text())

		switch {
		case hasAny(label, i10IndexLabels):
			m.I10Index = value
		case hasAny(label, hIndexLabels):
			m.HIndex = value
		case hasAny(label, citationLabels):
			m.TotalCitations = value
		}
	})
}

// parseCitationSeries pairs year labels (.gsc_g_t) with bar values by
// position. Values come from the bar anchors (.gsc_g_a), or from bare
// .gsc_g_al labels when a page has no anchors. Unequal counts mean the
// pairing is unknowable, so the series is dropped.
func parseCitationSeries(doc *goquery.Document) []types.YearCount {
	years := doc.Find(".gsc_g_t")
	vals := doc.Find(".gsc_g_a")
	if vals.Length() == 0 {
		vals = doc.Find(".gsc_g_al")
	}
	if years.Length() == 0 || years.Length() != vals.Length() {
		return nil
	}

	counts := make(map[int]int, years.Length())
	years.Each(func(i int, sel *goquery.Selection) {
		y, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
		if err != nil {
			return
		}
		counts[y] += atoiOrZero(vals.Eq(i).Text())
	})
	return sortedSeries(counts)
}

func sortedSeries(counts map[int]int) []types.YearCount {
	if len(counts) == 0 {
		return nil
	}
	out := make([]types.YearCount, 0, len(counts))
	for y, c := range counts {
		out = append(out, types.YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func hasAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// atoiOrZero parses a non-negative integer cell; anything else is 0.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
