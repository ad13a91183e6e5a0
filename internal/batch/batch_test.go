// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-enrich/internal/affiliation"
	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/httputil"
	"github.com/pdiddy/scholar-enrich/internal/search"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// --- fakes ---

type fakeSearch struct {
	hits   map[string]search.Hit
	calls  []string
	onCall func(n int)
}

func (f *fakeSearch) Lookup(_ context.Context, name string) (search.Hit, bool) {
	f.calls = append(f.calls, name)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	h, ok := f.hits[name]
	return h, ok
}

func hit(id, name, aff string) search.Hit {
	return search.Hit{
		Profile: types.SearchResult{ProfileID: id, DisplayName: name, Affiliation: aff},
		Metrics: types.ProfileMetrics{TotalCitations: 10, HIndex: 2},
	}
}

var roster = types.RosterConfig{NameColumn: "adi_soyadi", AffiliationColumn: "calistigi_kurum"}

func sources(namesAndAffs ...string) []types.SourceRecord {
	var out []types.SourceRecord
	for i := 0; i+1 < len(namesAndAffs); i += 2 {
		n, a := namesAndAffs[i], namesAndAffs[i+1]
		out = append(out, types.SourceRecord{
			Name:        n,
			Affiliation: a,
			Columns:     []string{"adi_soyadi", "calistigi_kurum"},
			Values:      []string{n, a},
		})
	}
	return out
}

func fiveRecords() []types.SourceRecord {
	return sources(
		"Ahmet Yılmaz", "İYTE",
		"Mehmet Kaya", "Hacettepe Üniversitesi",
		"Ayşe Demir", "ODTÜ",
		"Zeynep Çelik", "",
		"Ali Veli", "Ege Üniversitesi",
	)
}

func testOrchestrator(t *testing.T, s Searcher, ledger Ledger, dir string) *Orchestrator {
	t.Helper()
	return New(Options{
		Config:      types.BatchConfig{Dir: dir, Size: 2, ClaimTTL: time.Minute},
		Search:      s,
		Affiliation: affiliation.NewMatcher(nil, nil),
		Ledger:      ledger,
		RecordPacer: httputil.NoPacer{},
		BatchPacer:  httputil.NoPacer{},
		RunID:       "run-test",
	})
}

func testLedger(t *testing.T) *checkpoint.Ledger {
	t.Helper()
	l, err := checkpoint.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func readAll(t *testing.T, dir string) []types.EnrichedRecord {
	t.Helper()
	entries, warnings, err := artifact.Scan(dir)
	require.NoError(t, err)
	require.Empty(t, warnings)
	var out []types.EnrichedRecord
	for _, e := range entries {
		recs, err := artifact.Read(e.Path, roster)
		require.NoError(t, err)
		out = append(out, recs...)
	}
	return out
}

// --- planning ---

func TestPlan(t *testing.T) {
	assert.Equal(t, []types.Range{{Start: 0, End: 20}, {Start: 20, End: 40}, {Start: 40, End: 45}}, Plan(45, 20))
	assert.Equal(t, []types.Range{{Start: 0, End: 20}}, Plan(20, 20))
	assert.Empty(t, Plan(0, 20))
	assert.Len(t, Plan(41, 0), 3, "non-positive size falls back to the default")
}

func TestCovered(t *testing.T) {
	done := []types.Range{{Start: 0, End: 3}, {Start: 3, End: 5}, {Start: 8, End: 10}}
	tests := []struct {
		r    types.Range
		want bool
	}{
		{types.Range{Start: 0, End: 2}, true},
		{types.Range{Start: 2, End: 4}, true},
		{types.Range{Start: 0, End: 5}, true},
		{types.Range{Start: 4, End: 6}, false},
		{types.Range{Start: 5, End: 8}, false},
		{types.Range{Start: 8, End: 10}, true},
		{types.Range{Start: 9, End: 12}, false},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, covered(tt.r, done))
		})
	}
}

// --- Run ---

func TestRunWritesEveryRange(t *testing.T) {
	dir := t.TempDir()
	s := &fakeSearch{hits: map[string]search.Hit{
		"Ahmet Yılmaz": hit("ay1", "Ahmet Yilmaz", "Izmir Institute of Technology"),
		"Mehmet Kaya":  hit("mk1", "Mehmet Kaya", "Stanford University"),
	}}
	var out bytes.Buffer
	o := testOrchestrator(t, s, nil, dir)
	o.opts.Out = &out

	summary, err := o.Run(context.Background(), fiveRecords())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Planned)
	assert.Equal(t, 3, summary.Written)
	assert.Equal(t, 5, summary.Records)
	assert.Equal(t, 2, summary.Resolved)
	for _, name := range []string{"batch_0_2.csv", "batch_2_4.csv", "batch_4_5.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	recs := readAll(t, dir)
	require.Len(t, recs, 5)
	for i, r := range recs {
		assert.Equal(t, i, r.Row, "rows concatenate in source order")
	}
	assert.Equal(t, "ay1", recs[0].ProfileID())
	assert.Equal(t, types.ScoreStrong, recs[0].Resolution.Match.Score)
	assert.Equal(t, types.ScoreMismatch, recs[1].Resolution.Match.Score)
	assert.Equal(t, types.UnresolvedID, recs[2].ProfileID())
	assert.Contains(t, out.String(), "Batch summary: 3 written")
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	_, err := testOrchestrator(t, &fakeSearch{}, nil, dir).Run(context.Background(), fiveRecords())
	require.NoError(t, err)

	s := &fakeSearch{}
	summary, err := testOrchestrator(t, s, nil, dir).Run(context.Background(), fiveRecords())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Skipped)
	assert.Zero(t, summary.Written)
	assert.Empty(t, s.calls, "completed ranges are not searched again")
}

func TestRunRetriesMissingRangeOnly(t *testing.T) {
	dir := t.TempDir()
	_, err := testOrchestrator(t, &fakeSearch{}, nil, dir).Run(context.Background(), fiveRecords())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "batch_2_4.csv")))

	s := &fakeSearch{}
	summary, err := testOrchestrator(t, s, nil, dir).Run(context.Background(), fiveRecords())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 2, summary.Skipped)
	assert.Contains(t, s.calls, "Ayşe Demir")
	assert.NotContains(t, s.calls, "Ahmet Yılmaz")
	assert.Len(t, readAll(t, dir), 5)
}

func TestRunSkipsRangeCoveredByOtherSizes(t *testing.T) {
	dir := t.TempDir()
	recs := fiveRecords()
	for _, r := range []types.Range{{Start: 0, End: 3}, {Start: 3, End: 4}} {
		var enriched []types.EnrichedRecord
		for i := r.Start; i < r.End; i++ {
			enriched = append(enriched, types.Unresolved(i, recs[i], types.StatusNotFound))
		}
		require.NoError(t, artifact.Write(filepath.Join(dir, artifact.FileName(r)), enriched))
	}

	s := &fakeSearch{}
	summary, err := testOrchestrator(t, s, nil, dir).Run(context.Background(), recs)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, []string{"Ali Veli", "A. Veli"}, s.calls)
}

func TestRunWarnsOnMalformedArtifactName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_x_2.csv"), []byte("junk"), 0o644))

	summary, err := testOrchestrator(t, &fakeSearch{}, nil, dir).Run(context.Background(), fiveRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Written)
}

func TestRunCancelledLeavesRangeUnwritten(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &fakeSearch{
		hits: map[string]search.Hit{"Ahmet Yılmaz": hit("ay1", "Ahmet Yilmaz", "")},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	_, err := testOrchestrator(t, s, nil, dir).Run(ctx, fiveRecords())
	require.ErrorIs(t, err, context.Canceled)

	entries, _, scanErr := artifact.Scan(dir)
	require.NoError(t, scanErr)
	assert.Empty(t, entries)
}

// --- variants ---

func TestEnrichRetriesWithVariants(t *testing.T) {
	s := &fakeSearch{hits: map[string]search.Hit{
		"A. Yilmaz": hit("ay1", "A. Yilmaz", "Izmir Institute of Technology"),
	}}
	o := testOrchestrator(t, s, nil, t.TempDir())

	rec := o.Enrich(context.Background(), 7, sources("Ahmet  Yılmaz", "İYTE")[0])

	require.True(t, rec.IsResolved())
	assert.Equal(t, 7, rec.Row)
	assert.Equal(t, "A. Yilmaz", rec.Resolution.Query)
	assert.Equal(t, []string{"Ahmet Yılmaz", "Ahmet Yilmaz", "A. Yilmaz"}, s.calls,
		"the original is searched once, then only alternate renderings")
}

func TestEnrichExhaustsVariants(t *testing.T) {
	s := &fakeSearch{}
	o := testOrchestrator(t, s, nil, t.TempDir())

	rec := o.Enrich(context.Background(), 0, sources("Ayşe Nur Demir", "")[0])

	assert.False(t, rec.IsResolved())
	assert.Equal(t, types.StatusNotFound, rec.Status)
	assert.Equal(t, "Ayşe Nur Demir", s.calls[0])
	assert.Len(t, s.calls, len(uniqueStrings(s.calls)), "no rendering searched twice")
}

func TestEnrichEmptyNameSkipsSearch(t *testing.T) {
	s := &fakeSearch{}
	rec := testOrchestrator(t, s, nil, t.TempDir()).Enrich(context.Background(), 0, sources("  ", "X")[0])
	assert.False(t, rec.IsResolved())
	assert.Empty(t, s.calls)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// --- ledger ---

func TestRunRecordsLedgerEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := testLedger(t)
	s := &fakeSearch{hits: map[string]search.Hit{"Mehmet Kaya": hit("mk1", "Mehmet Kaya", "")}}

	_, err := testOrchestrator(t, s, ledger, dir).Run(ctx, fiveRecords())
	require.NoError(t, err)

	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "run-test", entries[0].RunID)
	assert.Equal(t, 2, entries[0].Records)
	assert.Equal(t, 1, entries[0].Resolved)
	assert.Equal(t, filepath.Join(dir, "batch_0_2.csv"), entries[0].Path)

	st, err := ledger.Claim(ctx, types.Range{Start: 0, End: 2}, "someone-else", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.ClaimWritten, st, "claim released and range recorded")
}

func TestRunSkipsRangeRecordedAfterStartup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := testLedger(t)
	other := types.Range{Start: 2, End: 4}

	// Another worker finishes [2,4) while this run is still on [0,2).
	s := &fakeSearch{}
	s.onCall = func(n int) {
		if n != 1 {
			return
		}
		path := filepath.Join(dir, artifact.FileName(other))
		recs := []types.EnrichedRecord{
			types.Unresolved(2, fiveRecords()[2], types.StatusNotFound),
			types.Unresolved(3, fiveRecords()[3], types.StatusNotFound),
		}
		require.NoError(t, artifact.Write(path, recs))
		require.NoError(t, ledger.Record(ctx, checkpoint.Entry{Range: other, Path: path, RunID: "run-b", Records: 2}))
	}

	var out bytes.Buffer
	o := testOrchestrator(t, s, ledger, dir)
	o.opts.Out = &out
	summary, err := o.Run(ctx, fiveRecords())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.ClaimedElsewhere)
	assert.NotContains(t, s.calls, "Ayşe Demir")
	assert.NotContains(t, s.calls, "Zeynep Çelik")
	assert.Contains(t, out.String(), "batch_2_4.csv (written by another run)")

	e, ok, err := ledger.Lookup(ctx, other)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-b", e.RunID)
}

func TestRunSkipsRangeClaimedElsewhere(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := testLedger(t)

	st, err := ledger.Claim(ctx, types.Range{Start: 2, End: 4}, "other-worker", time.Hour)
	require.NoError(t, err)
	require.Equal(t, checkpoint.ClaimGranted, st)

	s := &fakeSearch{}
	summary, err := testOrchestrator(t, s, ledger, dir).Run(ctx, fiveRecords())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ClaimedElsewhere)
	assert.Equal(t, 2, summary.Written)
	assert.NoFileExists(t, filepath.Join(dir, "batch_2_4.csv"))
	assert.NotContains(t, s.calls, "Ayşe Demir")
}

func TestRunReconcilesLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := testLedger(t)

	require.NoError(t, ledger.Record(ctx, checkpoint.Entry{
		Range: types.Range{Start: 0, End: 2}, Path: filepath.Join(dir, "batch_0_2.csv"), RunID: "lost",
	}))
	recs := fiveRecords()
	require.NoError(t, artifact.Write(filepath.Join(dir, "batch_4_5.csv"), []types.EnrichedRecord{
		types.Unresolved(4, recs[4], types.StatusNotFound),
	}))

	summary, err := testOrchestrator(t, &fakeSearch{}, ledger, dir).Run(ctx, recs)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 1, summary.Adopted)
	assert.Equal(t, 2, summary.Written)

	e, ok, err := ledger.Lookup(ctx, types.Range{Start: 4, End: 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, checkpoint.AdoptedRunID, e.RunID)
}

func TestNewDefaults(t *testing.T) {
	o := New(Options{Search: &fakeSearch{}, Affiliation: affiliation.NewMatcher(nil, nil)})
	assert.NotEmpty(t, o.RunID())
	assert.Equal(t, defaultBatchSize, o.opts.Config.Size)
	assert.NotNil(t, o.opts.Out)
}
