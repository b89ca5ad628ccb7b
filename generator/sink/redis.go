package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yaron8/dashboard-feed/dashboard"
)

// RedisClient is the subset of *redis.Client the sink needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink mirrors the latest snapshot under a key and announces it on a
// pub/sub channel. Only the latest value is kept.
type RedisSink struct {
	redisClient RedisClient
	key         string
	channel     string
	ttl         time.Duration
}

// NewRedisSink creates a sink writing to key with the given TTL. An empty
// channel disables the publish step.
func NewRedisSink(redisClient RedisClient, key, channel string, ttl time.Duration) *RedisSink {
	return &RedisSink{
		redisClient: redisClient,
		key:         key,
		channel:     channel,
		ttl:         ttl,
	}
}

func (rs *RedisSink) Publish(ctx context.Context, snap dashboard.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := rs.redisClient.Set(ctx, rs.key, data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot under %s: %w", rs.key, err)
	}

	if rs.channel == "" {
		return nil
	}
	if err := rs.redisClient.Publish(ctx, rs.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot on %s: %w", rs.channel, err)
	}

	return nil
}
