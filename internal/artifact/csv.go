// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// RowColumn holds the record's position in the source roster.
const RowColumn = "source_row"

// EnrichmentColumns follow the source columns in every artifact.
var EnrichmentColumns = []string{
	"scholar_id",
	"scholar_name",
	"scholar_affiliation",
	"total_citations",
	"h_index",
	"i10_index",
	"citations_per_year",
	"total_documents",
	"documents_per_year",
	"interests",
	"match_score",
	"match_notes",
	"match_query",
	"resolution",
}

// Header returns the full artifact header for the given source columns.
func Header(sourceColumns []string) []string {
	h := make([]string, 0, 1+len(sourceColumns)+len(EnrichmentColumns))
	h = append(h, RowColumn)
	h = append(h, sourceColumns...)
	return append(h, EnrichmentColumns...)
}

// Write stores records at path. The file appears only once complete: rows
// go to a temp file in the same directory that is renamed into place.
// The source columns of the first record define the header.
func Write(path string, records []types.EnrichedRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".batch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := encode(tmpFile, records)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func encode(w io.Writer, records []types.EnrichedRecord) error {
	var columns []string
	if len(records) > 0 {
		columns = records[0].Source.Columns
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(columns)); err != nil {
		return err
	}
	for _, rec := range records {
		if len(rec.Source.Values) != len(columns) {
			return fmt.Errorf("row %d has %d source values, header has %d", rec.Row, len(rec.Source.Values), len(columns))
		}
		row := make([]string, 0, 1+len(columns)+len(EnrichmentColumns))
		row = append(row, strconv.Itoa(rec.Row))
		row = append(row, rec.Source.Values...)
		row = append(row, enrichmentCells(rec)...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// enrichmentCells renders the identity columns. Unresolved records carry
// the sentinel id and nothing else but their status.
func enrichmentCells(rec types.EnrichedRecord) []string {
	cells := make([]string, len(EnrichmentColumns))
	cells[0] = rec.ProfileID()
	cells[len(cells)-1] = string(rec.Status)
	if !rec.IsResolved() {
		return cells
	}

	res := rec.Resolution
	m := res.Metrics
	copy(cells[1:], []string{
		res.Profile.DisplayName,
		res.Profile.Affiliation,
		strconv.Itoa(m.TotalCitations),
		strconv.Itoa(m.HIndex),
		strconv.Itoa(m.I10Index),
		FormatSeries(m.CitationsPerYear),
		strconv.Itoa(m.TotalDocuments),
		FormatSeries(m.DocumentsPerYear),
		FormatInterests(res.Profile.Interests),
		strconv.Itoa(res.Match.Score),
		res.Match.Rationale,
		res.Query,
	})
	return cells
}

// Read loads the records of an artifact or merged dataset. cols names the
// source columns that hold each record's name and affiliation.
func Read(path string, cols types.RosterConfig) ([]types.EnrichedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := decode(f, cols)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// SourceColumns returns the source column names recorded in an artifact
// header, or an error if the header lacks the fixed columns.
func SourceColumns(header []string) ([]string, error) {
	n := len(header) - 1 - len(EnrichmentColumns)
	if n < 0 || header[0] != RowColumn {
		return nil, fmt.Errorf("header does not start with %s", RowColumn)
	}
	for i, want := range EnrichmentColumns {
		if got := header[1+n+i]; got != want {
			return nil, fmt.Errorf("header column %d is %q, want %q", 1+n+i, got, want)
		}
	}
	return append([]string(nil), header[1:1+n]...), nil
}

func decode(r io.Reader, cols types.RosterConfig) ([]types.EnrichedRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns, err := SourceColumns(header)
	if err != nil {
		return nil, err
	}

	nameIdx, affIdx := -1, -1
	for i, c := range columns {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case strings.ToLower(cols.NameColumn):
			nameIdx = i
		case strings.ToLower(cols.AffiliationColumn):
			affIdx = i
		}
	}

	var records []types.EnrichedRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := decodeRow(row, columns, nameIdx, affIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row, columns []string, nameIdx, affIdx int) (types.EnrichedRecord, error) {
	pos, err := strconv.Atoi(row[0])
	if err != nil {
		return types.EnrichedRecord{}, fmt.Errorf("bad %s %q", RowColumn, row[0])
	}

	values := append([]string(nil), row[1:1+len(columns)]...)
	src := types.SourceRecord{Columns: columns, Values: values}
	if nameIdx >= 0 {
		src.Name = values[nameIdx]
	}
	if affIdx >= 0 {
		src.Affiliation = values[affIdx]
	}

	cell := make(map[string]string, len(EnrichmentColumns))
	for i, c := range EnrichmentColumns {
		cell[c] = row[1+len(columns)+i]
	}

	id := strings.TrimSpace(cell["scholar_id"])
	if id == "" || id == types.UnresolvedID {
		status := types.ResolutionStatus(cell["resolution"])
		if status == "" || status == types.StatusResolved {
			status = types.StatusNotFound
		}
		return types.Unresolved(pos, src, status), nil
	}

	var nums [5]int
	for i, c := range []string{"total_citations", "h_index", "i10_index", "total_documents", "match_score"} {
		if nums[i], err = atoiCell(cell[c]); err != nil {
			return types.EnrichedRecord{}, fmt.Errorf("%s: %w", c, err)
		}
	}
	citesPerYear, err := ParseSeries(cell["citations_per_year"])
	if err != nil {
		return types.EnrichedRecord{}, fmt.Errorf("citations_per_year: %w", err)
	}
	docsPerYear, err := ParseSeries(cell["documents_per_year"])
	if err != nil {
		return types.EnrichedRecord{}, fmt.Errorf("documents_per_year: %w", err)
	}

	return types.Resolved(pos, src, types.Resolution{
		Profile: types.SearchResult{
			ProfileID:   id,
			DisplayName: cell["scholar_name"],
			Affiliation: cell["scholar_affiliation"],
			Interests:   ParseInterests(cell["interests"]),
		},
		Metrics: types.ProfileMetrics{
			TotalCitations:   nums[0],
			HIndex:           nums[1],
			I10Index:         nums[2],
			TotalDocuments:   nums[3],
			CitationsPerYear: citesPerYear,
			DocumentsPerYear: docsPerYear,
		},
		Match: types.MatchAssessment{Score: nums[4], Rationale: cell["match_notes"]},
		Query: cell["match_query"],
	}), nil
}

func atoiCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Table is an artifact read cell by cell, without decoding.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadTable loads path as raw cells.
func ReadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(all) == 0 {
		return Table{}, fmt.Errorf("reading %s: missing header", path)
	}
	return Table{Header: all[0], Rows: all[1:]}, nil
}
