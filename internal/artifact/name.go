// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact reads and writes batch artifacts: CSV files holding the
// enriched records of one source row range, named batch_<start>_<end>.csv.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

var batchName = regexp.MustCompile(`^batch_(\d+)_(\d+)\.csv$`)

// Entry is an artifact file discovered in a batch directory.
type Entry struct {
	Path  string
	Range types.Range
}

// FileName returns the artifact name for r.
func FileName(r types.Range) string {
	return fmt.Sprintf("batch_%d_%d.csv", r.Start, r.End)
}

// ParseFileName recovers the range from an artifact file name. It rejects
// names with extra text and ranges whose end is not after the start.
func ParseFileName(name string) (types.Range, error) {
	m := batchName.FindStringSubmatch(name)
	if m == nil {
		return types.Range{}, fmt.Errorf("not a batch artifact name: %q", name)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return types.Range{}, fmt.Errorf("parsing start of %q: %w", name, err)
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return types.Range{}, fmt.Errorf("parsing end of %q: %w", name, err)
	}
	if end <= start {
		return types.Range{}, fmt.Errorf("empty range in %q", name)
	}
	return types.Range{Start: start, End: end}, nil
}

// Scan lists the artifacts in dir ordered by range start. Files that look
// like artifacts (batch_*.csv) but do not parse come back as warnings. A
// missing directory is an empty scan.
func Scan(dir string) ([]Entry, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading batch directory %s: %w", dir, err)
	}

	var (
		found    []Entry
		warnings []string
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ok, _ := filepath.Match("batch_*.csv", name); !ok {
			continue
		}
		r, err := ParseFileName(name)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		found = append(found, Entry{Path: filepath.Join(dir, name), Range: r})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Range.Start != found[j].Range.Start {
			return found[i].Range.Start < found[j].Range.Start
		}
		return found[i].Range.End < found[j].Range.End
	})
	return found, warnings, nil
}
