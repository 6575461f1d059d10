// internal/provider/health.go
package provider

import (
	"context"
	"sync"
	"time"

	"barquery/internal/common/logger"
)

// ProviderHealth is the last known liveness of one provider.
type ProviderHealth struct {
	Available     bool      `json:"available"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	LastError     string    `json:"lastError,omitempty"`
}

// HealthTracker caches probe results per provider. A provider is re-probed
// at most once per interval; between probes the stale result is reused and
// callers are never blocked on a fresh probe that already ran this cycle.
type HealthTracker struct {
	mu       sync.Mutex
	interval time.Duration
	status   map[string]ProviderHealth
	now      func() time.Time
	logger   logger.Logger
}

func NewHealthTracker(interval time.Duration, log logger.Logger) *HealthTracker {
	return &HealthTracker{
		interval: interval,
		status:   make(map[string]ProviderHealth),
		now:      time.Now,
		logger:   log.With(map[string]interface{}{"component": "health"}),
	}
}

// SetClock pins the tracker's clock, for tests.
func (t *HealthTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Check returns the provider's availability, probing first if the cached
// result is stale. A failed probe records the error and marks the provider
// unavailable until the next staleness window.
func (t *HealthTracker) Check(ctx context.Context, p Provider) bool {
	t.mu.Lock()
	current, known := t.status[p.ID()]
	now := t.now()
	if known && now.Sub(current.LastCheckedAt) < t.interval {
		t.mu.Unlock()
		return current.Available
	}
	t.mu.Unlock()

	// Probe outside the lock; only the bookkeeping is serialized.
	err := p.Probe(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	health := ProviderHealth{Available: err == nil, LastCheckedAt: t.now()}
	if err != nil {
		health.LastError = err.Error()
		t.logger.Warn("provider probe failed", map[string]interface{}{
			"provider": p.ID(),
			"error":    err.Error(),
		})
	}
	t.status[p.ID()] = health
	return health.Available
}

// Status returns a copy of the health map.
func (t *HealthTracker) Status() map[string]ProviderHealth {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]ProviderHealth, len(t.status))
	for id, h := range t.status {
		out[id] = h
	}
	return out
}
