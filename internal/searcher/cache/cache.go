package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kestrel-search/searchplatform/internal/searcher/executor"
	"github.com/kestrel-search/searchplatform/internal/searchengine/query"
	"github.com/kestrel-search/searchplatform/internal/searchengine/token"
	"github.com/kestrel-search/searchplatform/pkg/config"
	pkgredis "github.com/kestrel-search/searchplatform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// emptyStopWords normalises cache keys without applying any shard's
// stop-word list: dropping a stop-word from the key would make two
// queries that differ only in a term the engine itself discards collide,
// which is a correctness issue for caching, not just an efficiency one.
var emptyStopWords, _ = token.NewStopWords(nil)

type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, rawQuery, status string, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(rawQuery, status, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "err", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", rawQuery, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, rawQuery, status string, limit int, result *executor.SearchResult) {
	key := c.buildKey(rawQuery, status, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	rawQuery, status string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, rawQuery, status, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(rawQuery, status, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, rawQuery, status, limit); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, rawQuery, status, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.client.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(rawQuery, status string, limit int) string {
	normalized := normalizeQuery(rawQuery)
	raw := fmt.Sprintf("%s|status=%s|limit=%d", normalized, status, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery reduces rawQuery to its deduplicated, sorted plus/minus
// term lists so that two queries differing only in term order or
// repetition hash to the same cache key. A query the engine itself would
// reject is normalized to the raw string instead, so a malformed query
// never shares a key with a well-formed one.
func normalizeQuery(rawQuery string) string {
	q, err := query.Parse(rawQuery, emptyStopWords)
	if err != nil {
		return "raw:" + rawQuery
	}
	parts := []string{"+" + strings.Join(q.Plus, ",")}
	if len(q.Minus) > 0 {
		parts = append(parts, "-"+strings.Join(q.Minus, ","))
	}
	return strings.Join(parts, "|")
}
