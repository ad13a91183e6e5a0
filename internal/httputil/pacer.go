// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles a sequence of operations. Wait blocks until the next
// operation may proceed or ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer spaces operations at least Interval apart using a token
// bucket of size one. The first Wait returns immediately.
type IntervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a pacer allowing one operation per interval.
// A non-positive interval disables pacing.
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalPacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the bucket has a token.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer: %w", err)
	}
	return nil
}

// JitterPacer sleeps a uniformly random duration in [Min, Max) before every
// operation, so request timing does not look scripted.
type JitterPacer struct {
	Min, Max time.Duration

	// rand is swapped in tests.
	rand func(n int64) int64
}

// NewJitterPacer returns a pacer with the given bounds. Max below Min is
// treated as Min.
func NewJitterPacer(lo, hi time.Duration) *JitterPacer {
	if hi < lo {
		hi = lo
	}
	return &JitterPacer{Min: lo, Max: hi, rand: rand.Int63n}
}

// Next returns the delay the next Wait will sleep.
func (p *JitterPacer) Next() time.Duration {
	span := p.Max - p.Min
	if span <= 0 {
		return p.Min
	}
	pick := p.rand
	if pick == nil {
		pick = rand.Int63n
	}
	return p.Min + time.Duration(pick(int64(span)))
}

// Wait sleeps for Next() or until ctx is done.
func (p *JitterPacer) Wait(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoPacer never waits.
type NoPacer struct{}

// Wait returns ctx.Err().
func (NoPacer) Wait(ctx context.Context) error { return ctx.Err() }
