// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// ClaimStatus is the outcome of a Claim.
type ClaimStatus int

const (
	// ClaimGranted means the caller now holds the range.
	ClaimGranted ClaimStatus = iota
	// ClaimHeld means another run holds a live claim on the range.
	ClaimHeld
	// ClaimWritten means the ledger already records a batch overlapping
	// the range.
	ClaimWritten
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimGranted:
		return "granted"
	case ClaimHeld:
		return "held"
	case ClaimWritten:
		return "written"
	}
	return fmt.Sprintf("ClaimStatus(%d)", int(s))
}

// Claim takes r for runID until ttl elapses. It refuses with ClaimHeld
// when another run holds a live claim on r, and with ClaimWritten when a
// recorded batch overlaps r, so a range finished after the caller's startup
// scan is not enriched twice. Re-claiming a range runID already holds
// extends the lease.
func (l *Ledger) Claim(ctx context.Context, r types.Range, runID string, ttl time.Duration) (ClaimStatus, error) {
	now := l.now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimHeld, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		holder  string
		expires int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT run_id, expires_at FROM claims WHERE range_start = ? AND range_end = ?`,
		r.Start, r.End,
	).Scan(&holder, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ClaimHeld, fmt.Errorf("reading claim %s: %w", r, err)
	case holder != runID && expires > now.UnixNano():
		return ClaimHeld, nil
	}

	var written int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM batches WHERE range_start < ? AND range_end > ?`,
		r.End, r.Start,
	).Scan(&written); err != nil {
		return ClaimHeld, fmt.Errorf("checking recorded batches for %s: %w", r, err)
	}
	if written > 0 {
		return ClaimWritten, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO claims (range_start, range_end, run_id, expires_at) VALUES (?, ?, ?, ?)`,
		r.Start, r.End, runID, now.Add(ttl).UnixNano(),
	); err != nil {
		return ClaimHeld, fmt.Errorf("writing claim %s: %w", r, err)
	}

	if err := tx.Commit(); err != nil {
		return ClaimHeld, fmt.Errorf("committing claim %s: %w", r, err)
	}
	return ClaimGranted, nil
}

// Release drops runID's claim on r. Releasing a claim held by another run
// is a no-op.
func (l *Ledger) Release(ctx context.Context, r types.Range, runID string) error {
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM claims WHERE range_start = ? AND range_end = ? AND run_id = ?`,
		r.Start, r.End, runID,
	); err != nil {
		return fmt.Errorf("releasing claim %s: %w", r, err)
	}
	return nil
}
