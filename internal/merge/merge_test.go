// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/names"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

var roster = types.RosterConfig{NameColumn: "adi_soyadi", AffiliationColumn: "calistigi_kurum"}

func src(name string) types.SourceRecord {
	return types.SourceRecord{
		Name:    name,
		Columns: []string{"adi_soyadi", "calistigi_kurum"},
		Values:  []string{name, ""},
	}
}

func resolved(row int, name, profileName string) types.EnrichedRecord {
	return types.Resolved(row, src(name), types.Resolution{
		Profile: types.SearchResult{ProfileID: "id" + profileName[:1], DisplayName: profileName, Affiliation: "Somewhere"},
		Metrics: types.ProfileMetrics{
			TotalCitations:   120,
			HIndex:           6,
			CitationsPerYear: []types.YearCount{{Year: 2024, Count: 30}},
		},
		Match: types.MatchAssessment{Score: 3, Rationale: "no original affiliation to compare"},
		Query: name,
	})
}

func writeBatch(t *testing.T, dir string, r types.Range, recs ...types.EnrichedRecord) {
	t.Helper()
	require.NoError(t, artifact.Write(filepath.Join(dir, artifact.FileName(r)), recs))
}

func testOptions(dir string) Options {
	return Options{
		Dir:        dir,
		OutputPath: filepath.Join(dir, "out", "merged.csv"),
		Roster:     roster,
	}
}

func TestMergeOrdersAndClearsMismatches(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, types.Range{Start: 2, End: 4},
		resolved(2, "Mehmet Kaya", "Ayşe Demir"),
		types.Unresolved(3, src("Zeynep Çelik"), types.StatusNotFound),
	)
	writeBatch(t, dir, types.Range{Start: 0, End: 2},
		resolved(0, "Ahmet Yılmaz", "A. Yilmaz"),
		resolved(1, "Ali Veli", "Ali Veli Demir"),
	)

	var out bytes.Buffer
	opts := testOptions(dir)
	opts.Out = &out
	report, err := Merge(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 2, report.Resolved)
	assert.Equal(t, 1, report.Mismatches)
	require.Len(t, report.Cleared, 1)
	assert.Equal(t, 2, report.Cleared[0].Row)
	assert.Equal(t, "Ayşe Demir", report.Cleared[0].ProfileName)
	assert.Empty(t, report.Gaps)
	assert.Empty(t, report.Overlaps)
	require.Len(t, report.Files, 2)
	assert.Equal(t, 0, report.Files[0].Range.Start)

	merged, err := artifact.Read(opts.OutputPath, roster)
	require.NoError(t, err)
	require.Len(t, merged, 4)
	for i, r := range merged {
		assert.Equal(t, i, r.Row)
	}
	assert.True(t, merged[0].IsResolved())
	assert.True(t, merged[1].IsResolved())
	assert.Equal(t, types.StatusNameMismatch, merged[2].Status)
	assert.Nil(t, merged[2].Resolution)
	assert.Equal(t, types.StatusNotFound, merged[3].Status)
	assert.Contains(t, out.String(), "1 name mismatches cleared")
}

func TestMergeClearedRowHasOnlySentinel(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, types.Range{Start: 0, End: 1}, resolved(0, "Mehmet Kaya", "Ayşe Demir"))

	opts := testOptions(dir)
	_, err := Merge(context.Background(), opts)
	require.NoError(t, err)

	table, err := artifact.ReadTable(opts.OutputPath)
	require.NoError(t, err)
	vr, err := Verify(table)
	require.NoError(t, err)
	assert.True(t, vr.OK())
	assert.Equal(t, 1, vr.Unresolved)
}

func TestMergeReportsGapsAndSkips(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, types.Range{Start: 0, End: 1}, types.Unresolved(0, src("A B"), types.StatusNotFound))
	writeBatch(t, dir, types.Range{Start: 3, End: 4}, types.Unresolved(3, src("C D"), types.StatusNotFound))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_1_x.csv"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_1_3.csv"), []byte("not,an,artifact\n"), 0o644))

	opts := testOptions(dir)
	opts.Total = 6
	report, err := Merge(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Rows)
	assert.Len(t, report.Skipped, 2)
	assert.Equal(t, []types.Range{{Start: 1, End: 3}, {Start: 4, End: 6}}, report.Gaps)
}

func TestMergeSkipsForeignColumns(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, types.Range{Start: 0, End: 1}, types.Unresolved(0, src("A B"), types.StatusNotFound))
	other := types.SourceRecord{Name: "C D", Columns: []string{"adi_soyadi"}, Values: []string{"C D"}}
	writeBatch(t, dir, types.Range{Start: 1, End: 2}, types.Unresolved(1, other, types.StatusNotFound))

	report, err := Merge(context.Background(), testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rows)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0], "source columns differ")
}

func TestMergeNoArtifacts(t *testing.T) {
	_, err := Merge(context.Background(), testOptions(t.TempDir()))
	assert.Error(t, err)
}

func TestMergeWritesYAMLReportWithProvenance(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := types.Range{Start: 0, End: 1}
	writeBatch(t, dir, r, resolved(0, "Ahmet Yılmaz", "Ahmet Yilmaz"))

	ledger, err := checkpoint.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer ledger.Close()
	require.NoError(t, ledger.Record(ctx, checkpoint.Entry{Range: r, Path: "p", RunID: "run-7"}))

	opts := testOptions(dir)
	opts.Ledger = ledger
	_, err = Merge(ctx, opts)
	require.NoError(t, err)

	reportPath := strings.TrimSuffix(opts.OutputPath, ".csv") + ".report.yaml"
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got.Files, 1)
	assert.Equal(t, "run-7", got.Files[0].RunID)
	assert.Equal(t, 1, got.Resolved)
}

func TestMergeStrictRemainderPolicy(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, types.Range{Start: 0, End: 1}, resolved(0, "Yilmaz Yilmaz", "Ahmet Yilmaz Bey"))

	opts := testOptions(dir)
	policy := names.DefaultPolicy()
	policy.AllowEmptyRemainder = false
	opts.Matcher = policy

	report, err := Merge(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mismatches)
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name     string
		ranges   []types.Range
		total    int
		gaps     []types.Range
		overlaps []types.Range
	}{
		{
			name:   "contiguous",
			ranges: []types.Range{{Start: 0, End: 20}, {Start: 20, End: 40}},
			total:  40,
		},
		{
			name:   "leading and trailing gaps",
			ranges: []types.Range{{Start: 20, End: 40}},
			total:  50,
			gaps:   []types.Range{{Start: 0, End: 20}, {Start: 40, End: 50}},
		},
		{
			name:     "overlap",
			ranges:   []types.Range{{Start: 0, End: 20}, {Start: 10, End: 30}},
			overlaps: []types.Range{{Start: 10, End: 20}},
		},
		{
			name:     "nested",
			ranges:   []types.Range{{Start: 0, End: 30}, {Start: 5, End: 10}, {Start: 30, End: 35}},
			overlaps: []types.Range{{Start: 5, End: 10}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gaps, overlaps := Coverage(tt.ranges, tt.total)
			assert.Equal(t, tt.gaps, gaps)
			assert.Equal(t, tt.overlaps, overlaps)
		})
	}
}
