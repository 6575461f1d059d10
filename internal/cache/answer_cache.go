// internal/cache/answer_cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"barquery/internal/common/database"
	"barquery/internal/common/logger"
	"barquery/internal/common/metrics"
	"barquery/internal/insight"
	"barquery/internal/nlp"
)

// AnswerCache stores finished analysis results keyed by the normalized query
// text and the calendar day. The day stamp keeps relative expressions like
// "hoje" from serving yesterday's answer.
type AnswerCache struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewAnswerCache(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *AnswerCache {
	return &AnswerCache{
		redis:  redis,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "answer-cache"}),
		now:    time.Now,
	}
}

// SetClock pins the cache's clock, for tests.
func (c *AnswerCache) SetClock(now func() time.Time) {
	c.now = now
}

// Key derives the cache key for a query.
func (c *AnswerCache) Key(query string) string {
	day := c.now().UTC().Format("2006-01-02")
	sum := sha256.Sum256([]byte(nlp.Normalize(query) + "|" + day))
	return "barquery:answer:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for the query, or nil on a miss. Errors are
// treated as misses so a flaky Redis never blocks answering.
func (c *AnswerCache) Get(ctx context.Context, query string) *insight.AnalysisResult {
	raw, err := c.redis.Get(ctx, c.Key(query))
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", map[string]interface{}{"error": err.Error()})
		}
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	var result insight.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", map[string]interface{}{"error": err.Error()})
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	metrics.CacheHits.WithLabelValues("hit").Inc()
	return &result
}

// Put stores the result under the query's key. Failures are logged and
// swallowed.
func (c *AnswerCache) Put(ctx context.Context, query string, result *insight.AnalysisResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.redis.Set(ctx, c.Key(query), string(raw), c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
