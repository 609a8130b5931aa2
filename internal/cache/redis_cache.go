package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"placescout/backend/internal/domain"
)

const dailyCountKey = "daily_count"

type RedisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(addr string, password string, db int) *RedisSessionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSessionCache{client: client}
}

func (c *RedisSessionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}

func (c *RedisSessionCache) GetSession(ctx context.Context, userID int64) (*domain.Session, bool, error) {
	val, err := c.client.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (c *RedisSessionCache) SetSession(ctx context.Context, userID int64, session *domain.Session, ttl time.Duration) error {
	if session == nil {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(userID), payload, ttl).Err()
}

func (c *RedisSessionCache) DeleteSession(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, sessionKey(userID)).Err()
}

func (c *RedisSessionCache) DailyCount(ctx context.Context) (int, error) {
	val, err := c.client.Get(ctx, dailyCountKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *RedisSessionCache) SetDailyCount(ctx context.Context, count int) error {
	return c.client.Set(ctx, dailyCountKey, count, 0).Err()
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}
