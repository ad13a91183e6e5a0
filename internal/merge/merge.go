// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge concatenates batch artifacts into the final dataset,
// re-checking every resolved identity by name before it is kept.
package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/internal/checkpoint"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/internal/names"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// Provenance lists which run wrote each range. *checkpoint.Ledger
// implements it.
type Provenance interface {
	Entries(ctx context.Context) ([]checkpoint.Entry, error)
}

// Options configures Merge.
type Options struct {
	// Dir holds the batch artifacts.
	Dir string
	// OutputPath receives the merged CSV.
	OutputPath string
	// ReportPath receives the YAML report. Defaults to OutputPath with a
	// .report.yaml suffix in place of the extension.
	ReportPath string

	Roster types.RosterConfig

	// Matcher re-checks resolved names. Defaults to names.DefaultPolicy().
	Matcher names.Matcher

	// Ledger adds run ids to the report when set.
	Ledger Provenance

	// Total is the roster size; rows beyond the last artifact up to Total
	// are reported as a gap. Zero disables the trailing check.
	Total int

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer
}

// FileReport describes one merged artifact.
type FileReport struct {
	Path  string      `yaml:"path"`
	Range types.Range `yaml:"range"`
	Rows  int         `yaml:"rows"`
	RunID string      `yaml:"run_id,omitempty"`
}

// ClearedRow is a resolved record whose identity failed the name check.
type ClearedRow struct {
	Row         int    `yaml:"row"`
	Name        string `yaml:"name"`
	ProfileID   string `yaml:"profile_id"`
	ProfileName string `yaml:"profile_name"`
	Reason      string `yaml:"reason"`
}

// Report summarizes a merge.
type Report struct {
	OutputPath  string        `yaml:"output_path"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Files       []FileReport  `yaml:"files"`
	Skipped     []string      `yaml:"skipped,omitempty"`
	Rows        int           `yaml:"rows"`
	Resolved    int           `yaml:"resolved"`
	Mismatches  int           `yaml:"mismatches"`
	Cleared     []ClearedRow  `yaml:"cleared,omitempty"`
	Gaps        []types.Range `yaml:"gaps,omitempty"`
	Overlaps    []types.Range `yaml:"overlaps,omitempty"`
}

// Merge reads every artifact in opts.Dir in range order, clears resolved
// records whose profile name does not match the source name, and writes
// the merged dataset and its report. Unparseable names, unreadable files,
// and files whose source columns differ from the first are skipped with a
// warning.
func Merge(ctx context.Context, opts Options) (Report, error) {
	if opts.Matcher == nil {
		opts.Matcher = names.DefaultPolicy()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ReportPath == "" {
		opts.ReportPath = strings.TrimSuffix(opts.OutputPath, filepath.Ext(opts.OutputPath)) + ".report.yaml"
	}
	report := Report{OutputPath: opts.OutputPath, GeneratedAt: time.Now().UTC()}

	entries, warnings, err := artifact.Scan(opts.Dir)
	if err != nil {
		return report, err
	}
	for _, msg := range warnings {
		logging.Warn("skipping artifact", "reason", msg)
		report.Skipped = append(report.Skipped, msg)
	}
	if len(entries) == 0 {
		return report, fmt.Errorf("no batch artifacts in %s", opts.Dir)
	}

	runs := provenance(ctx, opts.Ledger)

	var (
		all     []types.EnrichedRecord
		columns []string
		ranges  []types.Range
	)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		recs, err := artifact.Read(e.Path, opts.Roster)
		if err != nil {
			logging.Warn("skipping unreadable artifact", "path", e.Path, "err", err)
			report.Skipped = append(report.Skipped, err.Error())
			continue
		}
		if len(recs) > 0 {
			if columns == nil {
				columns = recs[0].Source.Columns
			} else if !slices.Equal(columns, recs[0].Source.Columns) {
				msg := fmt.Sprintf("%s: source columns differ from earlier artifacts", e.Path)
				logging.Warn("skipping artifact", "reason", msg)
				report.Skipped = append(report.Skipped, msg)
				continue
			}
		}

		all = append(all, recs...)
		ranges = append(ranges, e.Range)
		report.Files = append(report.Files, FileReport{Path: e.Path, Range: e.Range, Rows: len(recs), RunID: runs[e.Range]})
		fmt.Fprintf(opts.Out, "merged: %s (%d rows)\n", e.Path, len(recs))
	}

	for i := range all {
		rec := &all[i]
		if !rec.IsResolved() {
			continue
		}
		res := rec.Resolution
		ok, why := opts.Matcher.Match(rec.Source.Name, res.Profile.DisplayName)
		if ok {
			report.Resolved++
			continue
		}
		report.Cleared = append(report.Cleared, ClearedRow{
			Row:         rec.Row,
			Name:        rec.Source.Name,
			ProfileID:   res.Profile.ProfileID,
			ProfileName: res.Profile.DisplayName,
			Reason:      why,
		})
		rec.Unresolve(types.StatusNameMismatch)
		fmt.Fprintf(opts.Out, "  cleared [%d] %s (profile %q: %s)\n", rec.Row, rec.Source.Name, res.Profile.DisplayName, why)
	}
	report.Rows = len(all)
	report.Mismatches = len(report.Cleared)
	report.Gaps, report.Overlaps = Coverage(ranges, opts.Total)
	for _, g := range report.Gaps {
		logging.Warn("coverage gap", "range", g.String())
	}
	for _, o := range report.Overlaps {
		logging.Warn("overlapping artifacts", "range", o.String())
	}

	if err := artifact.Write(opts.OutputPath, all); err != nil {
		return report, err
	}
	if err := writeReport(opts.ReportPath, report); err != nil {
		return report, err
	}

	fmt.Fprintf(opts.Out, "\nMerge summary: %d files, %d rows, %d resolved, %d name mismatches cleared\n",
		len(report.Files), report.Rows, report.Resolved, report.Mismatches)
	fmt.Fprintf(opts.Out, "output: %s\nreport: %s\n", opts.OutputPath, opts.ReportPath)
	return report, nil
}

func provenance(ctx context.Context, ledger Provenance) map[types.Range]string {
	runs := make(map[types.Range]string)
	if ledger == nil {
		return runs
	}
	entries, err := ledger.Entries(ctx)
	if err != nil {
		logging.Warn("reading ledger provenance failed", "err", err)
		return runs
	}
	for _, e := range entries {
		runs[e.Range] = e.RunID
	}
	return runs
}

func writeReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling merge report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing merge report: %w", err)
	}
	return nil
}

// Coverage returns the rows no range covers and the rows more than one
// range covers. ranges must be sorted by start. total, when positive,
// extends the gap check to the end of the roster.
func Coverage(ranges []types.Range, total int) (gaps, overlaps []types.Range) {
	pos := 0
	for _, r := range ranges {
		if r.Start > pos {
			gaps = append(gaps, types.Range{Start: pos, End: r.Start})
		}
		if r.Start < pos {
			overlaps = append(overlaps, types.Range{Start: r.Start, End: min(pos, r.End)})
		}
		pos = max(pos, r.End)
	}
	if total > pos {
		gaps = append(gaps, types.Range{Start: pos, End: total})
	}
	return gaps, overlaps
}
