package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"lojapos/backend/internal/domain"
)

type RedisCartStore struct {
	client *redis.Client
}

func NewRedisCartStore(addr string, password string, db int) *RedisCartStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCartStore{client: client}
}

func (c *RedisCartStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCartStore) Close() error {
	return c.client.Close()
}

func cartKey(terminal string) string {
	return "cart:" + terminal
}

func (c *RedisCartStore) Get(ctx context.Context, terminal string) (*domain.CartSnapshot, bool, error) {
	val, err := c.client.Get(ctx, cartKey(terminal)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot domain.CartSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, false, err
	}
	return &snapshot, true, nil
}

func (c *RedisCartStore) Set(ctx context.Context, terminal string, snapshot *domain.CartSnapshot, ttl time.Duration) error {
	if snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cartKey(terminal), payload, ttl).Err()
}

func (c *RedisCartStore) Delete(ctx context.Context, terminal string) error {
	return c.client.Del(ctx, cartKey(terminal)).Err()
}
