// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives enrichment over a roster in fixed-size ranges and
// persists each range as one artifact. A range is either absent or fully
// written, so an interrupted run is resumed by running again.
package batch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/httputil"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/internal/names"
	"github.com/pdiddy/scholar-enrich/internal/search"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

const defaultBatchSize = 20

// Searcher resolves a name to a profile hit.
type Searcher interface {
	Lookup(ctx context.Context, name string) (search.Hit, bool)
}

// Assessor scores a profile affiliation against the declared one.
type Assessor interface {
	Assess(original, found string) types.MatchAssessment
}

// Ledger records completed ranges and arbitrates claims between runs.
// *checkpoint.Ledger implements it.
type Ledger interface {
	Reconcile(ctx context.Context, files []artifact.Entry) (checkpoint.Reconciliation, error)
	Claim(ctx context.Context, r types.Range, runID string, ttl time.Duration) (checkpoint.ClaimStatus, error)
	Release(ctx context.Context, r types.Range, runID string) error
	Record(ctx context.Context, e checkpoint.Entry) error
}

// Options configures an Orchestrator. Search and Affiliation are required.
type Options struct {
	Config      types.BatchConfig
	Pacing      types.PacingConfig
	Search      Searcher
	Affiliation Assessor

	// Ledger is optional; without it ranges are never claimed and no
	// provenance is kept.
	Ledger Ledger

	// RecordPacer and BatchPacer default to fixed intervals from Pacing.
	RecordPacer httputil.Pacer
	BatchPacer  httputil.Pacer

	// RunID identifies this run in the ledger. Defaults to a random UUID.
	RunID string

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer
}

// Orchestrator runs the batch phase.
type Orchestrator struct {
	opts Options
}

// New returns an Orchestrator with defaults applied to opts.
func New(opts Options) *Orchestrator {
	if opts.Config.Size <= 0 {
		opts.Config.Size = defaultBatchSize
	}
	if opts.RecordPacer == nil {
		opts.RecordPacer = httputil.NewIntervalPacer(opts.Pacing.RecordDelay)
	}
	if opts.BatchPacer == nil {
		opts.BatchPacer = httputil.NewIntervalPacer(opts.Pacing.BatchDelay)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Orchestrator{opts: opts}
}

// RunID returns the identifier this run records in the ledger.
func (o *Orchestrator) RunID() string { return o.opts.RunID }

// Summary counts the outcome of a Run.
type Summary struct {
	Planned          int
	Written          int
	Skipped          int
	ClaimedElsewhere int
	Records          int
	Resolved         int
	Adopted          int
	Dropped          int
}

// Plan partitions total rows into consecutive ranges of at most size rows.
func Plan(total, size int) []types.Range {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out []types.Range
	for start := 0; start < total; start += size {
		out = append(out, types.Range{Start: start, End: min(start+size, total)})
	}
	return out
}

// Run enriches every range of records not already covered by an artifact
// in the batch directory. Cancelling ctx abandons the current range
// without writing it. Errors are returned only for setup and write
// failures; lookup failures become unresolved records.
func (o *Orchestrator) Run(ctx context.Context, records []types.SourceRecord) (Summary, error) {
	cfg := o.opts.Config
	w := o.opts.Out
	ranges := Plan(len(records), cfg.Size)
	summary := Summary{Planned: len(ranges)}

	files, warnings, err := artifact.Scan(cfg.Dir)
	if err != nil {
		return summary, err
	}
	for _, msg := range warnings {
		logging.Warn("skipping artifact", "reason", msg)
	}

	if o.opts.Ledger != nil {
		rec, err := o.opts.Ledger.Reconcile(ctx, files)
		if err != nil {
			return summary, fmt.Errorf("reconciling ledger: %w", err)
		}
		for _, e := range rec.Dropped {
			logging.Warn("ledger entry without artifact dropped", "range", e.Range.String(), "path", e.Path, "run", e.RunID)
		}
		for _, f := range rec.Adopted {
			logging.Warn("artifact without ledger entry adopted", "range", f.Range.String(), "path", f.Path)
		}
		summary.Adopted, summary.Dropped = len(rec.Adopted), len(rec.Dropped)
	}

	completed := make([]types.Range, len(files))
	for i, f := range files {
		completed[i] = f.Range
	}

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if covered(r, completed) {
			summary.Skipped++
			fmt.Fprintf(w, "skipped: %s (already written)\n", artifact.FileName(r))
			continue
		}

		written, err := o.runRange(ctx, r, records[r.Start:r.End], &summary)
		if err != nil {
			return summary, err
		}
		if written && i < len(ranges)-1 {
			if err := o.opts.BatchPacer.Wait(ctx); err != nil {
				return summary, err
			}
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d written, %d skipped, %d claimed elsewhere; %d/%d records resolved\n",
		summary.Written, summary.Skipped, summary.ClaimedElsewhere, summary.Resolved, summary.Records)
	return summary, nil
}

// runRange claims, enriches, writes, and records one range. It reports
// whether an artifact was written.
func (o *Orchestrator) runRange(ctx context.Context, r types.Range, slice []types.SourceRecord, summary *Summary) (bool, error) {
	ledger := o.opts.Ledger
	runID := o.opts.RunID

	if ledger != nil {
		status, err := ledger.Claim(ctx, r, runID, o.opts.Config.ClaimTTL)
		if err != nil {
			return false, fmt.Errorf("claiming %s: %w", r, err)
		}
		switch status {
		case checkpoint.ClaimHeld:
			summary.ClaimedElsewhere++
			fmt.Fprintf(o.opts.Out, "skipped: %s (claimed by another run)\n", artifact.FileName(r))
			return false, nil
		case checkpoint.ClaimWritten:
			summary.Skipped++
			fmt.Fprintf(o.opts.Out, "skipped: %s (written by another run)\n", artifact.FileName(r))
			return false, nil
		}
		defer func() {
			if err := ledger.Release(context.WithoutCancel(ctx), r, runID); err != nil {
				logging.Warn("releasing claim failed", "range", r.String(), "err", err)
			}
		}()
	}

	fmt.Fprintf(o.opts.Out, "batch %s: %d records\n", r, len(slice))
	enriched, err := o.enrichRange(ctx, r, slice)
	if err != nil {
		return false, err
	}

	path := filepath.Join(o.opts.Config.Dir, artifact.FileName(r))
	if err := artifact.Write(path, enriched); err != nil {
		return false, err
	}

	resolved := 0
	for _, rec := range enriched {
		if rec.IsResolved() {
			resolved++
		}
	}
	summary.Written++
	summary.Records += len(enriched)
	summary.Resolved += resolved
	fmt.Fprintf(o.opts.Out, "wrote: %s (%d/%d resolved)\n", path, resolved, len(enriched))

	if ledger != nil {
		entry := checkpoint.Entry{Range: r, Path: path, RunID: runID, Records: len(enriched), Resolved: resolved}
		if err := ledger.Record(ctx, entry); err != nil {
			logging.Warn("recording batch in ledger failed", "range", r.String(), "err", err)
		}
	}
	return true, nil
}

func (o *Orchestrator) enrichRange(ctx context.Context, r types.Range, slice []types.SourceRecord) ([]types.EnrichedRecord, error) {
	out := make([]types.EnrichedRecord, 0, len(slice))
	for i, src := range slice {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := r.Start + i
		rec := o.Enrich(ctx, row, src)
		out = append(out, rec)

		if rec.IsResolved() {
			res := rec.Resolution
			fmt.Fprintf(o.opts.Out, "  [%d] %s -> %s (%s, affiliation %d)\n",
				row, src.Name, res.Profile.ProfileID, res.Profile.DisplayName, res.Match.Score)
		} else {
			fmt.Fprintf(o.opts.Out, "  [%d] %s -> not found\n", row, src.Name)
		}

		if err := o.opts.RecordPacer.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Enrich resolves one source record: the original name first, then each
// alternate rendering until one finds a profile.
func (o *Orchestrator) Enrich(ctx context.Context, row int, src types.SourceRecord) types.EnrichedRecord {
	hit, query, ok := o.resolve(ctx, src.Name)
	if !ok {
		return types.Unresolved(row, src, types.StatusNotFound)
	}
	return types.Resolved(row, src, types.Resolution{
		Profile: hit.Profile,
		Metrics: hit.Metrics,
		Match:   o.opts.Affiliation.Assess(src.Affiliation, hit.Profile.Affiliation),
		Query:   query,
	})
}

func (o *Orchestrator) resolve(ctx context.Context, name string) (search.Hit, string, bool) {
	original := strings.Join(strings.Fields(name), " ")
	if original == "" {
		return search.Hit{}, "", false
	}
	if hit, ok := o.opts.Search.Lookup(ctx, original); ok {
		return hit, original, true
	}
	for _, v := range names.Variants(original) {
		if v == original {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if hit, ok := o.opts.Search.Lookup(ctx, v); ok {
			return hit, v, true
		}
	}
	return search.Hit{}, "", false
}

// covered reports whether every row of r lies inside the union of done,
// which must be sorted by start.
func covered(r types.Range, done []types.Range) bool {
	pos := r.Start
	for _, d := range done {
		if pos >= r.End || d.Start > pos {
			break
		}
		if d.End > pos {
			pos = d.End
		}
	}
	return pos >= r.End
}
