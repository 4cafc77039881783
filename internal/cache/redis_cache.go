package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

type RedisTimelineCache struct {
	client *redis.Client
}

func NewRedisTimelineCache(addr string, password string, db int) *RedisTimelineCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTimelineCache{client: client}
}

func (c *RedisTimelineCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTimelineCache) Close() error {
	return c.client.Close()
}

func (c *RedisTimelineCache) Get(ctx context.Context, key string) ([]domain.MergedRecord, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []domain.MergedRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (c *RedisTimelineCache) Set(ctx context.Context, key string, value []domain.MergedRecord, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
