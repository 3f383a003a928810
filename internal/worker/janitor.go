package worker

import (
	"context"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// IdleEvictor drops per-session state last used before cutoff
type IdleEvictor interface {
	EvictIdle(cutoff time.Time) int
}

// SessionJanitor periodically evicts idle carts and checkouts
type SessionJanitor struct {
	evictors map[string]IdleEvictor
	idleTTL  time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionJanitor creates a janitor that sweeps every interval and drops
// entries idle for longer than idleTTL
func NewSessionJanitor(idleTTL, interval time.Duration, evictors map[string]IdleEvictor) *SessionJanitor {
	return &SessionJanitor{
		evictors: evictors,
		idleTTL:  idleTTL,
		interval: interval,
		now:      time.Now,
		logger:   util.GetLogger(),
	}
}

// Sweep runs one eviction pass and returns the number of entries dropped
func (j *SessionJanitor) Sweep() int {
	cutoff := j.now().Add(-j.idleTTL)
	total := 0
	for kind, evictor := range j.evictors {
		n := evictor.EvictIdle(cutoff)
		if n == 0 {
			continue
		}
		util.SessionsEvictedTotal.WithLabelValues(kind).Add(float64(n))
		j.logger.Debug("Evicted idle sessions", zap.String("kind", kind), zap.Int("count", n))
		total += n
	}
	return total
}

// Start sweeps on a ticker until ctx is cancelled
func (j *SessionJanitor) Start(ctx context.Context) {
	j.logger.Info("Starting session janitor...",
		zap.Duration("idle_ttl", j.idleTTL),
		zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Stopping session janitor...")
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}
