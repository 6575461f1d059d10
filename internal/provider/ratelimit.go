// internal/provider/ratelimit.go
package provider

import (
	"sync"
	"time"

	"barquery/internal/common/config"
	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/metrics"
)

// rateEntry is one accepted call inside the trailing window.
type rateEntry struct {
	at     time.Time
	tokens int
}

// RateGate enforces the shared per-process request budget over a trailing
// 60-second window. Entries are pruned lazily on each check. The request
// ceiling is the only hard gate; the token ceiling is tracked for usage
// reporting but never rejects a call.
type RateGate struct {
	mu      sync.Mutex
	entries []rateEntry
	limits  config.RateLimitConfig
	now     func() time.Time
}

const rateWindow = time.Minute

func NewRateGate(limits config.RateLimitConfig) *RateGate {
	return &RateGate{limits: limits, now: time.Now}
}

// SetClock pins the gate's clock, for tests.
func (g *RateGate) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// Allow rejects with RateLimitExceeded when the request count in the
// trailing window already meets the ceiling. Rejected calls are not queued.
func (g *RateGate) Allow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune(g.now())
	if len(g.entries) >= g.limits.RequestsPerMinute {
		metrics.RateLimitRejections.Inc()
		return stderrors.NewRateLimitExceededError(len(g.entries), g.limits.RequestsPerMinute)
	}
	return nil
}

// Record accounts one completed call and its token usage against the shared
// budget. Aborted calls are never recorded.
func (g *RateGate) Record(tokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, rateEntry{at: g.now(), tokens: tokens})
}

// Usage returns the current requests-per-minute and tokens-per-minute.
func (g *RateGate) Usage() (requests int, tokens int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune(g.now())
	for _, e := range g.entries {
		tokens += e.tokens
	}
	return len(g.entries), tokens
}

// Limits exposes the configured ceilings for status reporting.
func (g *RateGate) Limits() config.RateLimitConfig {
	return g.limits
}

// prune drops entries older than the window. Caller holds the lock.
func (g *RateGate) prune(now time.Time) {
	cutoff := now.Add(-rateWindow)
	kept := g.entries[:0]
	for _, e := range g.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	g.entries = kept
}
