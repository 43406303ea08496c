package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anchorhub/backoffice/internal/domain"
)

const (
	summaryKeyPrefix = "pricing:summary:"
	versionKeyPrefix = "pricing:summary-version:"
)

// setIfVersion writes the summary only while the product's version counter
// still holds the value the caller read before loading from Postgres.
// KEYS[1] summary, KEYS[2] version; ARGV[1] payload, ARGV[2] version, ARGV[3] ttl ms.
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// SummaryCache stores computed product summaries in Redis as JSON. Each
// product has a version counter that Invalidate bumps, so a fill computed
// before an invalidation can never land after it.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(productID string) string {
	return summaryKeyPrefix + productID
}

func versionKey(productID string) string {
	return versionKeyPrefix + productID
}

// Get returns the cached summary, or nil on a miss, together with the
// product's current version for a later Set.
func (c *SummaryCache) Get(ctx context.Context, productID string) (*domain.ProductSummary, int64, error) {
	vals, err := c.client.MGet(ctx, summaryKey(productID), versionKey(productID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get summary: %w", err)
	}

	var version int64
	if raw, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse summary version %q: %w", raw, err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, nil
	}
	var s domain.ProductSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, version, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, version, nil
}

// Set stores s unless the product was invalidated after version was read.
// It reports whether the entry was written.
func (c *SummaryCache) Set(ctx context.Context, s *domain.ProductSummary, version int64) (bool, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("marshal summary: %w", err)
	}
	keys := []string{summaryKey(s.Product.ID), versionKey(s.Product.ID)}
	written, err := setIfVersion.Run(ctx, c.client, keys, data, version, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set summary: %w", err)
	}
	return written == 1, nil
}

// Invalidate drops the cached summaries and bumps each product's version in
// one MULTI block.
func (c *SummaryCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, summaryKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate summaries: %w", err)
	}
	return nil
}
