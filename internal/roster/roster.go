// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roster loads the source roster: a CSV file with a header row,
// one person per row.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// Load reads the roster at cfg.Path.
func Load(cfg types.RosterConfig) ([]types.SourceRecord, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", cfg.Path, err)
	}
	defer f.Close()

	records, err := Parse(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", cfg.Path, err)
	}
	return records, nil
}

// Parse reads roster rows from r. Header names are matched case-insensitively;
// the name column is required and the affiliation column optional. Every
// column passes through in its original order. Short rows are padded.
func Parse(r io.Reader, cfg types.RosterConfig) ([]types.SourceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameIdx, ok := headerMap[strings.ToLower(cfg.NameColumn)]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", cfg.NameColumn)
	}
	affIdx, hasAff := headerMap[strings.ToLower(cfg.AffiliationColumn)]

	var records []types.SourceRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make([]string, len(header))
		copy(values, row)
		if extra := extraCells(row, len(header)); extra > 0 {
			logging.Warn("roster row longer than header, extra cells dropped", "line", line, "cells", extra)
		}
		rec := types.SourceRecord{
			Name:    strings.TrimSpace(values[nameIdx]),
			Columns: header,
			Values:  values,
		}
		if hasAff {
			rec.Affiliation = strings.TrimSpace(values[affIdx])
		}
		records = append(records, rec)
	}
	return records, nil
}

// extraCells counts the non-empty cells of row past the header width.
// Trailing empty cells are common in exported sheets and are ignored.
func extraCells(row []string, width int) int {
	n := 0
	for i := width; i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "" {
			n++
		}
	}
	return n
}
