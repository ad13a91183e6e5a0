// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint keeps a SQLite ledger of completed batch artifacts and
// of live claims on batch ranges, so resumed and concurrent runs agree on
// which ranges still need work.
//
// The artifact files remain the source of truth for completion; the ledger
// adds provenance (run id, counts, timestamps) and claim exclusion.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-enrich/internal/artifact"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// AdoptedRunID marks ledger rows created for artifacts found on disk
// without a matching entry.
const AdoptedRunID = "adopted"

// Entry records one completed artifact.
type Entry struct {
	Range       types.Range `yaml:"range"`
	Path        string      `yaml:"path"`
	RunID       string      `yaml:"run_id"`
	Records     int         `yaml:"records"`
	Resolved    int         `yaml:"resolved"`
	CompletedAt time.Time   `yaml:"completed_at"`
}

// Ledger is the checkpoint database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path. Transactions take the write
// lock up front so claims from separate processes serialize.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			range_start INTEGER NOT NULL,
			range_end INTEGER NOT NULL,
			path TEXT NOT NULL,
			run_id TEXT NOT NULL,
			records INTEGER NOT NULL DEFAULT 0,
			resolved INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT NOT NULL,
			PRIMARY KEY (range_start, range_end)
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			range_start INTEGER NOT NULL,
			range_end INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (range_start, range_end)
		)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e, replacing any earlier entry for the same range.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = l.now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO batches (range_start, range_end, path, run_id, records, resolved, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Range.Start, e.Range.End, e.Path, e.RunID, e.Records, e.Resolved,
		e.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording batch %s: %w", e.Range, err)
	}
	return nil
}

// Entries returns every ledger entry ordered by range start.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT range_start, range_end, path, run_id, records, resolved, completed_at
		 FROM batches ORDER BY range_start, range_end`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Lookup returns the entry for r, if any.
func (l *Ledger) Lookup(ctx context.Context, r types.Range) (Entry, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT range_start, range_end, path, run_id, records, resolved, completed_at
		 FROM batches WHERE range_start = ? AND range_end = ?`, r.Start, r.End)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e  Entry
		ts string
	)
	if err := s.Scan(&e.Range.Start, &e.Range.End, &e.Path, &e.RunID, &e.Records, &e.Resolved, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scanning batch row: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		e.CompletedAt = t
	}
	return e, nil
}

// Reconciliation is the drift found between the ledger and the artifact
// files on disk.
type Reconciliation struct {
	// Dropped entries named a file that no longer exists.
	Dropped []Entry
	// Adopted files existed without an entry and were recorded under
	// AdoptedRunID.
	Adopted []artifact.Entry
}

// Reconcile makes the ledger agree with files, the artifacts found on
// disk. Files win: stale entries are deleted and unknown files adopted.
func (l *Ledger) Reconcile(ctx context.Context, files []artifact.Entry) (Reconciliation, error) {
	var rec Reconciliation

	entries, err := l.Entries(ctx)
	if err != nil {
		return rec, err
	}

	onDisk := make(map[types.Range]bool, len(files))
	for _, f := range files {
		onDisk[f.Range] = true
	}
	known := make(map[types.Range]bool, len(entries))

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		known[e.Range] = true
		if onDisk[e.Range] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE range_start = ? AND range_end = ?`, e.Range.Start, e.Range.End); err != nil {
			return rec, fmt.Errorf("dropping stale batch %s: %w", e.Range, err)
		}
		rec.Dropped = append(rec.Dropped, e)
	}

	now := l.now().UTC().Format(time.RFC3339Nano)
	for _, f := range files {
		if known[f.Range] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (range_start, range_end, path, run_id, completed_at) VALUES (?, ?, ?, ?, ?)`,
			f.Range.Start, f.Range.End, f.Path, AdoptedRunID, now,
		); err != nil {
			return rec, fmt.Errorf("adopting batch %s: %w", f.Range, err)
		}
		rec.Adopted = append(rec.Adopted, f)
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("committing reconciliation: %w", err)
	}
	return rec, nil
}
