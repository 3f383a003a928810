package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cutoffRecorder struct {
	cutoffs []time.Time
	evict   int
}

func (c *cutoffRecorder) EvictIdle(cutoff time.Time) int {
	c.cutoffs = append(c.cutoffs, cutoff)
	return c.evict
}

func TestSessionJanitorSweepUsesIdleCutoff(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	carts := &cutoffRecorder{evict: 3}
	checkouts := &cutoffRecorder{evict: 1}

	janitor := NewSessionJanitor(30*time.Minute, time.Minute, map[string]IdleEvictor{
		"cart":     carts,
		"checkout": checkouts,
	})
	janitor.now = func() time.Time { return now }

	assert.Equal(t, 4, janitor.Sweep())
	require.Len(t, carts.cutoffs, 1)
	assert.True(t, carts.cutoffs[0].Equal(now.Add(-30*time.Minute)))
	require.Len(t, checkouts.cutoffs, 1)
	assert.True(t, checkouts.cutoffs[0].Equal(now.Add(-30*time.Minute)))
}

func TestSessionJanitorStopsOnCancel(t *testing.T) {
	janitor := NewSessionJanitor(time.Minute, time.Hour, map[string]IdleEvictor{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
