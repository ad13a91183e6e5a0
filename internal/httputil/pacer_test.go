// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalPacerFirstWaitImmediate(t *testing.T) {
	p := NewIntervalPacer(time.Hour)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestIntervalPacerSpacesCalls(t *testing.T) {
	p := NewIntervalPacer(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestIntervalPacerSpacesStartsNotGaps(t *testing.T) {
	p := NewIntervalPacer(30 * time.Millisecond)
	require.NoError(t, p.Wait(context.Background()))

	// Work longer than the interval leaves nothing to wait for.
	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestIntervalPacerDisabled(t *testing.T) {
	p := NewIntervalPacer(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
}

func TestIntervalPacerCancelled(t *testing.T) {
	p := NewIntervalPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
}

func TestJitterPacerBounds(t *testing.T) {
	p := NewJitterPacer(time.Second, 2*time.Second)
	for i := 0; i < 50; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 2*time.Second)
	}
}

func TestJitterPacerDeterministicSource(t *testing.T) {
	p := NewJitterPacer(10*time.Millisecond, 20*time.Millisecond)
	p.rand = func(n int64) int64 { return n / 2 }
	assert.Equal(t, 15*time.Millisecond, p.Next())
}

func TestJitterPacerInvertedBounds(t *testing.T) {
	p := NewJitterPacer(5*time.Millisecond, time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.Next())
}

func TestJitterPacerCancelled(t *testing.T) {
	p := NewJitterPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestNoPacer(t *testing.T) {
	assert.NoError(t, NoPacer{}.Wait(context.Background()))
}
