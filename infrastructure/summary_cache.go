package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/infrastructure/observability"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ConnectRedis opens a client and verifies the server answers
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	log.WithField("addr", addr).Info("Connected to Redis")
	return rdb, nil
}

// generationTTL outlives any summary entry so a reader never sees a
// generation reset while its database read is in flight
const generationTTL = 24 * time.Hour

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[2]
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisSummaryCache caches wager summaries keyed by wager id. Each wager has
// a generation counter bumped on invalidation; writes carrying an older
// generation are dropped.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache creates a summary cache with the given entry lifetime
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func summaryKey(wagerID int64) string {
	return "wager:summary:" + strconv.FormatInt(wagerID, 10)
}

func generationKey(wagerID int64) string {
	return "wager:summary:gen:" + strconv.FormatInt(wagerID, 10)
}

// Get returns the cached summary, or nil on a miss with the generation to
// pass back to Set
func (c *RedisSummaryCache) Get(ctx context.Context, wagerID int64) (*entities.WagerDetail, int64, error) {
	values, err := c.client.MGet(ctx, summaryKey(wagerID), generationKey(wagerID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wager summary %d: %w", wagerID, err)
	}

	var generation int64
	if raw, ok := values[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid summary generation for wager %d: %w", wagerID, err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		observability.GetMetrics().RecordSummaryCacheLookup(observability.CacheMiss)
		return nil, generation, nil
	}

	var detail entities.WagerDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		return nil, 0, fmt.Errorf("failed to decode wager summary %d: %w", wagerID, err)
	}
	observability.GetMetrics().RecordSummaryCacheLookup(observability.CacheHit)
	return &detail, generation, nil
}

// Set stores a summary until the TTL passes or a transition invalidates it.
// A summary read before the latest invalidation is discarded.
func (c *RedisSummaryCache) Set(ctx context.Context, detail *entities.WagerDetail, generation int64) error {
	if detail == nil || detail.Wager == nil {
		return nil
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to encode wager summary: %w", err)
	}

	wagerID := detail.Wager.ID
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{summaryKey(wagerID), generationKey(wagerID)},
		b, generation, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to write wager summary %d: %w", wagerID, err)
	}
	if stored == 0 {
		log.WithFields(log.Fields{
			"wagerID":    wagerID,
			"generation": generation,
		}).Debug("Dropped stale wager summary")
	}
	return nil
}

// Invalidate drops the cached summary for a wager and bumps its generation
func (c *RedisSummaryCache) Invalidate(ctx context.Context, wagerID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(wagerID))
		pipe.Expire(ctx, generationKey(wagerID), generationTTL)
		pipe.Del(ctx, summaryKey(wagerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate wager summary %d: %w", wagerID, err)
	}
	return nil
}

// NoopSummaryCache is used when Redis is not configured
type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(ctx context.Context, wagerID int64) (*entities.WagerDetail, int64, error) {
	return nil, 0, nil
}

func (NoopSummaryCache) Set(ctx context.Context, detail *entities.WagerDetail, generation int64) error {
	return nil
}

func (NoopSummaryCache) Invalidate(ctx context.Context, wagerID int64) error {
	return nil
}
