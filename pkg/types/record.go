// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// UnresolvedID is written in place of a profile identifier for every
// record without a reliable resolved profile.
const UnresolvedID = "no_scholar_id"

// SourceRecord is one roster row. Columns and Values hold every original
// cell so extra metadata passes through untouched.
type SourceRecord struct {
	Name        string
	Affiliation string
	Columns     []string
	Values      []string
}

// ResolutionStatus tags which variant an EnrichedRecord holds.
type ResolutionStatus string

const (
	StatusResolved     ResolutionStatus = "resolved"
	StatusNotFound     ResolutionStatus = "not_found"
	StatusNameMismatch ResolutionStatus = "name_mismatch"
)

// Resolution is the resolved identity attached to a record: the chosen
// search result, its metrics, and the affiliation assessment.
type Resolution struct {
	Profile SearchResult    `json:"profile" yaml:"profile"`
	Metrics ProfileMetrics  `json:"metrics" yaml:"metrics"`
	Match   MatchAssessment `json:"match" yaml:"match"`

	// Query is the name variant whose search produced the hit.
	Query string `json:"query" yaml:"query"`
}

// EnrichedRecord is a source row plus either a Resolution or nothing.
// Resolution is non-nil exactly when Status is StatusResolved.
type EnrichedRecord struct {
	Row        int
	Source     SourceRecord
	Status     ResolutionStatus
	Resolution *Resolution
}

// Resolved returns a record holding res.
func Resolved(row int, src SourceRecord, res Resolution) EnrichedRecord {
	return EnrichedRecord{Row: row, Source: src, Status: StatusResolved, Resolution: &res}
}

// Unresolved returns a record with no identity.
func Unresolved(row int, src SourceRecord, status ResolutionStatus) EnrichedRecord {
	return EnrichedRecord{Row: row, Source: src, Status: status}
}

// IsResolved reports whether the record carries an identity.
func (r EnrichedRecord) IsResolved() bool {
	return r.Status == StatusResolved && r.Resolution != nil
}

// ProfileID returns the resolved identifier or UnresolvedID.
func (r EnrichedRecord) ProfileID() string {
	if !r.IsResolved() {
		return UnresolvedID
	}
	return r.Resolution.Profile.ProfileID
}

// Unresolve drops every identity field at once and records why.
func (r *EnrichedRecord) Unresolve(status ResolutionStatus) {
	r.Resolution = nil
	r.Status = status
}

// Range is the half-open interval [Start, End) of source row positions.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether row i falls inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Overlaps reports whether r and o share at least one row.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
